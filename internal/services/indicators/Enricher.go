package indicators

import (
	"TradeSimulator/internal/models"
)

// MAPeriods are the moving average windows attached to every bar.
var MAPeriods = []int{5, 10, 20, 60, 120}

const RSIPeriod = 14

type Enricher struct {
	ma  *MAService
	rsi *RSIService
}

func NewEnricher() *Enricher {
	return &Enricher{
		ma:  NewMAService(),
		rsi: NewRSIService(),
	}
}

// WarmUp is the number of leading bars dropped because at least one
// indicator is undefined on them.
func WarmUp() int {
	longest := RSIPeriod
	for _, p := range MAPeriods {
		if p-1 > longest {
			longest = p - 1
		}
	}
	return longest
}

// Enrich fills the indicator columns and drops the warm-up rows. It returns
// nil when there are not enough bars to produce a single complete row.
func (e *Enricher) Enrich(bars []models.PriceBar) []models.PriceBar {
	warmUp := WarmUp()
	if len(bars) <= warmUp {
		return nil
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	averages := make(map[int][]float64, len(MAPeriods))
	for _, p := range MAPeriods {
		averages[p] = e.ma.Calculate(closes, p)
	}
	rsi := e.rsi.Calculate(closes, RSIPeriod)

	enriched := make([]models.PriceBar, 0, len(bars)-warmUp)
	for i := warmUp; i < len(bars); i++ {
		bar := bars[i]
		bar.MA5 = averages[5][i]
		bar.MA10 = averages[10][i]
		bar.MA20 = averages[20][i]
		bar.MA60 = averages[60][i]
		bar.MA120 = averages[120][i]
		bar.RSI14 = rsi[i]
		enriched = append(enriched, bar)
	}
	return enriched
}
