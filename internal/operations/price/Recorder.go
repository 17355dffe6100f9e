package price

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PriceRecorder keeps the bar cache of a fixed watch list current.
type PriceRecorder struct {
	source  BarSource
	store   BarStore
	symbols []string
	log     zerolog.Logger
}

func NewPriceRecorder(source BarSource, store BarStore, symbols []string, log zerolog.Logger) *PriceRecorder {
	return &PriceRecorder{
		source:  source,
		store:   store,
		symbols: symbols,
		log:     log.With().Str("component", "price_recorder").Logger(),
	}
}

// RecordAll refreshes every watched symbol and returns how many succeeded.
func (r *PriceRecorder) RecordAll(ctx context.Context) int {
	recorded := 0
	for _, symbol := range r.symbols {
		if ctx.Err() != nil {
			return recorded
		}
		if err := r.Record(ctx, symbol); err != nil {
			r.log.Error().Err(err).Str("symbol", symbol).Msg("Error recording prices")
			continue
		}
		recorded++
	}
	return recorded
}

// Record fetches the bars after the latest cached one and stores them.
// The latest cached day is fetched again since it may have been partial.
func (r *PriceRecorder) Record(ctx context.Context, symbol string) error {
	var since time.Time
	latest, err := r.store.GetLatestBar(symbol)
	if err != nil {
		return err
	}
	if latest != nil {
		since = latest.Date
	}

	bars, err := r.source.FetchDailyBars(ctx, symbol, since)
	if err != nil {
		return err
	}
	if err := r.store.SaveBars(bars); err != nil {
		return err
	}

	r.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Recorded prices")
	return nil
}
