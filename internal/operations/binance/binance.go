package binance

import (
	"context"
	"fmt"
	"net/http"
	"time"

	binanceapi "github.com/adshao/go-binance/v2"
	"golang.org/x/time/rate"
)

const (
	dailyInterval = "1d"
	klineLimit    = 1000
	maxRetries    = 3
	baseBackoff   = 100 * time.Millisecond
)

// BinanceClient reads public spot market data. Requests share one limiter
// and are retried with doubling backoff.
type BinanceClient struct {
	client  *binanceapi.Client
	limiter *rate.Limiter
}

func NewBinanceClient(apiKey, secretKey string) *BinanceClient {
	spot := binanceapi.NewClient(apiKey, secretKey)
	spot.HTTPClient = &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &BinanceClient{
		client:  spot,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// GetKlines returns up to klineLimit candles of symbol from startTime (ms).
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, startTime int64) ([]*binanceapi.Kline, error) {
	var lastErr error
	wait := baseBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(startTime).
			Limit(klineLimit).
			Do(ctx)
		if err == nil {
			return klines, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("klines %s %s after %d attempts: %w", symbol, interval, maxRetries+1, lastErr)
}

// GetDailyKlines pages through the daily history of symbol starting at
// since. A zero since starts at the first listed day.
func (c *BinanceClient) GetDailyKlines(ctx context.Context, symbol string, since time.Time) ([]*binanceapi.Kline, error) {
	var startMs int64
	if !since.IsZero() {
		startMs = since.UnixMilli()
	}

	var history []*binanceapi.Kline
	for {
		page, err := c.GetKlines(ctx, symbol, dailyInterval, startMs)
		if err != nil {
			return nil, err
		}
		history = append(history, page...)

		if len(page) < klineLimit {
			return history, nil
		}
		startMs = page[len(page)-1].OpenTime + (24 * time.Hour).Milliseconds()
	}
}
