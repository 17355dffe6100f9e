package price

import (
	"TradeSimulator/internal/models"
	"fmt"
	"math/rand"
)

// Window is the slice of a series shown to the user. Bars before
// SimStart are observation history; trading starts at SimStart.
type Window struct {
	ViewStart int
	SimStart  int
}

// SelectWindow picks a random view start so that observationDays of
// history precede the first simulated day and, when the series is long
// enough, at least minSimulationDays remain after it.
func SelectWindow(rng *rand.Rand, total, observationDays, minSimulationDays int) (Window, error) {
	if observationDays < 0 || minSimulationDays < 0 {
		return Window{}, fmt.Errorf("%w: window lengths cannot be negative", models.ErrInvalidInput)
	}
	// at least one tradable day must follow the simulation start
	if total < observationDays+2 {
		return Window{}, fmt.Errorf("%w: %d bars cannot cover %d observation days", models.ErrInvalidInput, total, observationDays)
	}

	required := observationDays + minSimulationDays
	if total < required || rng == nil {
		return Window{ViewStart: 0, SimStart: observationDays}, nil
	}

	viewStart := rng.Intn(total - required + 1)
	simStart := viewStart + observationDays
	if simStart >= total-1 {
		simStart = total - 2
		viewStart = simStart - observationDays
	}
	return Window{ViewStart: viewStart, SimStart: simStart}, nil
}
