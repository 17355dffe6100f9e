package price

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"TradeSimulator/internal/models"

	"github.com/rs/zerolog"
)

type PriceFetcher struct {
	client KlineSource
	log    zerolog.Logger
}

func NewPriceFetcher(client KlineSource, log zerolog.Logger) *PriceFetcher {
	return &PriceFetcher{
		client: client,
		log:    log.With().Str("component", "price_fetcher").Logger(),
	}
}

// ExchangeSymbol maps a "BTC-USD" style ticker to the exchange's "BTCUSDT".
func ExchangeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if base, ok := strings.CutSuffix(symbol, "-USD"); ok {
		return base + "USDT"
	}
	return symbol
}

func (f *PriceFetcher) FetchDailyBars(ctx context.Context, symbol string, since time.Time) ([]models.PriceBar, error) {
	klines, err := f.client.GetDailyKlines(ctx, ExchangeSymbol(symbol), since)
	if err != nil {
		return nil, fmt.Errorf("fetch daily klines for %s: %w", symbol, err)
	}

	fetchedAt := time.Now().UTC()
	bars := make([]models.PriceBar, 0, len(klines))
	for _, k := range klines {
		bar := models.PriceBar{
			Symbol:    symbol,
			Date:      time.UnixMilli(k.OpenTime).UTC().Truncate(24 * time.Hour),
			FetchedAt: fetchedAt,
		}
		fields := []struct {
			raw string
			dst *float64
		}{
			{k.Open, &bar.Open},
			{k.High, &bar.High},
			{k.Low, &bar.Low},
			{k.Close, &bar.Close},
			{k.Volume, &bar.Volume},
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(field.raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parse kline for %s at %d: %w", symbol, k.OpenTime, err)
			}
			*field.dst = v
		}
		bars = append(bars, bar)
	}

	f.log.Info().
		Str("symbol", symbol).
		Int("bars", len(bars)).
		Msg("Fetched daily bars")
	return bars, nil
}
