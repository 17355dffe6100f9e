package handlers

import (
	"context"
	"fmt"
	"time"

	"TradeSimulator/internal/models"
	"TradeSimulator/internal/operations/price"
	"TradeSimulator/internal/services/indicators"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// PriceStore is the bar cache the handler reads through.
type PriceStore interface {
	SaveBars(bars []models.PriceBar) error
	GetDailyBars(symbol string) ([]models.PriceBar, error)
	GetLastFetched(symbol string) (*models.PriceBar, error)
}

// PriceHandler loads enriched series for sessions, serving from the cache
// while it is fresh and refetching from the asset's source otherwise.
type PriceHandler struct {
	priceRepo PriceStore
	sources   map[string]price.BarSource
	enricher  *indicators.Enricher
	cacheTTL  time.Duration
	recorder  *price.PriceRecorder
	cron      *cron.Cron
	log       zerolog.Logger
	now       func() time.Time
}

// NewPriceHandler builds the loader. priceRepo may be nil, in which case
// every load goes to the source.
func NewPriceHandler(priceRepo PriceStore, sources map[string]price.BarSource, cacheTTL time.Duration, log zerolog.Logger) *PriceHandler {
	return &PriceHandler{
		priceRepo: priceRepo,
		sources:   sources,
		enricher:  indicators.NewEnricher(),
		cacheTTL:  cacheTTL,
		log:       log.With().Str("component", "price_handler").Logger(),
		now:       time.Now,
	}
}

func (h *PriceHandler) LoadSeries(ctx context.Context, symbol string, asset models.AssetClass) (*models.PriceSeries, error) {
	bars, err := h.loadBars(ctx, symbol, asset)
	if err != nil {
		return nil, err
	}

	enriched := h.enricher.Enrich(bars)
	if len(enriched) == 0 {
		return nil, fmt.Errorf("%w: %s has %d bars, need more than %d for indicators",
			models.ErrInvalidInput, symbol, len(bars), indicators.WarmUp())
	}
	return models.NewPriceSeries(symbol, enriched)
}

func (h *PriceHandler) loadBars(ctx context.Context, symbol string, asset models.AssetClass) ([]models.PriceBar, error) {
	if bars, ok := h.cachedBars(symbol); ok {
		return bars, nil
	}

	source, ok := h.sources[asset.Name]
	if !ok {
		return nil, fmt.Errorf("%w: no price source for %s", models.ErrInvalidInput, asset.Name)
	}
	bars, err := source.FetchDailyBars(ctx, symbol, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price data for %s: %w", symbol, models.ErrNotFound)
	}

	if h.priceRepo != nil {
		fetchedAt := h.now().UTC()
		for i := range bars {
			bars[i].Symbol = symbol
			bars[i].FetchedAt = fetchedAt
		}
		if err := h.priceRepo.SaveBars(bars); err != nil {
			h.log.Warn().Err(err).Str("symbol", symbol).Msg("Error caching prices")
		}
	}
	return bars, nil
}

func (h *PriceHandler) cachedBars(symbol string) ([]models.PriceBar, bool) {
	if h.priceRepo == nil {
		return nil, false
	}
	last, err := h.priceRepo.GetLastFetched(symbol)
	if err != nil || last == nil || h.now().Sub(last.FetchedAt) > h.cacheTTL {
		return nil, false
	}
	bars, err := h.priceRepo.GetDailyBars(symbol)
	if err != nil || len(bars) == 0 {
		return nil, false
	}
	h.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Serving prices from cache")
	return bars, true
}

// StartRecording warms the cache for the recorder's watch list now and
// then on the given cron spec.
func (h *PriceHandler) StartRecording(ctx context.Context, recorder *price.PriceRecorder, spec string) error {
	h.recorder = recorder
	h.recorder.RecordAll(ctx)

	c := cron.New()
	if _, err := c.AddFunc(spec, func() { h.recorder.RecordAll(ctx) }); err != nil {
		return fmt.Errorf("schedule price recording: %w", err)
	}
	c.Start()
	h.cron = c
	return nil
}

func (h *PriceHandler) Stop() {
	if h.cron != nil {
		<-h.cron.Stop().Done()
	}
}
