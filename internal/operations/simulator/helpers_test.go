package simulator

import (
	"TradeSimulator/internal/models"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

// flatBars builds n bars that all trade in a narrow band around price.
func flatBars(n int, price float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := range bars {
		bars[i] = models.PriceBar{
			Date:   testStart.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}
	return bars
}

func newTestSimulator(t *testing.T, config Config, bars []models.PriceBar) *Simulator {
	t.Helper()
	series, err := models.NewPriceSeries("TEST", bars)
	require.NoError(t, err)
	sim, err := NewSimulator(config, series, 0, zerolog.Nop())
	require.NoError(t, err)

	n := 0
	sim.newID = func() string {
		n++
		return "pos-" + string(rune('0'+n))
	}
	return sim
}
