package price

import (
	"context"
	"time"

	"TradeSimulator/internal/models"

	binanceapi "github.com/adshao/go-binance/v2"
)

// BarSource yields the daily history of one symbol, oldest first.
type BarSource interface {
	FetchDailyBars(ctx context.Context, symbol string, since time.Time) ([]models.PriceBar, error)
}

// KlineSource is the slice of the exchange client the fetcher needs.
type KlineSource interface {
	GetDailyKlines(ctx context.Context, symbol string, since time.Time) ([]*binanceapi.Kline, error)
}

// BarStore is the cache the recorder refreshes.
type BarStore interface {
	SaveBars(bars []models.PriceBar) error
	GetLatestBar(symbol string) (*models.PriceBar, error)
}
