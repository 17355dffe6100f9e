package price

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"TradeSimulator/internal/models"

	binanceapi "github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKlines struct {
	klines []*binanceapi.Kline
	err    error
	symbol string
	since  time.Time
}

func (f *fakeKlines) GetDailyKlines(ctx context.Context, symbol string, since time.Time) ([]*binanceapi.Kline, error) {
	f.symbol = symbol
	f.since = since
	return f.klines, f.err
}

func TestFetchDailyBarsConvertsKlines(t *testing.T) {
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	source := &fakeKlines{klines: []*binanceapi.Kline{
		{OpenTime: day.UnixMilli(), Open: "42000.5", High: "43000", Low: "41000", Close: "42500", Volume: "1234.5"},
		{OpenTime: day.AddDate(0, 0, 1).UnixMilli(), Open: "42500", High: "44000", Low: "42000", Close: "43900", Volume: "99"},
	}}
	fetcher := NewPriceFetcher(source, zerolog.Nop())

	bars, err := fetcher.FetchDailyBars(context.Background(), "BTC-USD", time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "BTCUSDT", source.symbol)
	assert.Equal(t, "BTC-USD", bars[0].Symbol)
	assert.True(t, bars[0].Date.Equal(day))
	assert.Equal(t, 42000.5, bars[0].Open)
	assert.Equal(t, 43900.0, bars[1].Close)
	assert.False(t, bars[0].FetchedAt.IsZero())
}

func TestFetchDailyBarsRejectsMalformedKline(t *testing.T) {
	source := &fakeKlines{klines: []*binanceapi.Kline{{Open: "abc", High: "1", Low: "1", Close: "1", Volume: "1"}}}
	_, err := NewPriceFetcher(source, zerolog.Nop()).FetchDailyBars(context.Background(), "ETHUSDT", time.Time{})
	assert.Error(t, err)

	source = &fakeKlines{err: errors.New("boom")}
	_, err = NewPriceFetcher(source, zerolog.Nop()).FetchDailyBars(context.Background(), "ETHUSDT", time.Time{})
	assert.ErrorContains(t, err, "boom")
}

func TestExchangeSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", ExchangeSymbol("btc-usd"))
	assert.Equal(t, "ETHUSDT", ExchangeSymbol("ETHUSDT"))
}

const sampleCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2024-01-02,187.15,188.44,183.89,185.64,185.40,82488700
2024-01-03,184.22,185.88,183.43,184.25,184.01,58414500
2024-01-04,null,null,null,null,null,null
2024-01-05,181.99,182.76,180.17,181.18,180.95,62303300
`

func TestParseCSVSkipsMissingRows(t *testing.T) {
	bars, err := ParseCSV(strings.NewReader(sampleCSV), "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 187.15, bars[0].Open)
	assert.Equal(t, 82488700.0, bars[0].Volume)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), bars[2].Date)
}

func TestParseCSVRequiresColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Date,Open,Close\n2024-01-01,1,1\n"), "X")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(sampleCSV), 0o644))
	source := NewCSVSource(dir)

	bars, err := source.FetchDailyBars(context.Background(), "AAPL", time.Time{})
	require.NoError(t, err)
	assert.Len(t, bars, 3)

	bars, err = source.FetchDailyBars(context.Background(), "AAPL", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, bars, 2)

	_, err = source.FetchDailyBars(context.Background(), "MSFT", time.Time{})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = source.FetchDailyBars(context.Background(), "../etc/passwd", time.Time{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSelectWindow(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := SelectWindow(rand.New(rand.NewSource(1)), 200, 250, 720)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("shorter than minimum run starts at zero", func(t *testing.T) {
		window, err := SelectWindow(rand.New(rand.NewSource(1)), 600, 250, 720)
		require.NoError(t, err)
		assert.Equal(t, Window{ViewStart: 0, SimStart: 250}, window)
	})

	t.Run("random start stays in range", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 200; i++ {
			window, err := SelectWindow(rng, 1500, 250, 720)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, window.ViewStart, 0)
			assert.LessOrEqual(t, window.ViewStart, 1500-970)
			assert.Equal(t, window.ViewStart+250, window.SimStart)
		}
	})

	t.Run("seeded source is reproducible", func(t *testing.T) {
		a, err := SelectWindow(rand.New(rand.NewSource(7)), 5000, 250, 720)
		require.NoError(t, err)
		b, err := SelectWindow(rand.New(rand.NewSource(7)), 5000, 250, 720)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

type memoryStore struct {
	bars []models.PriceBar
}

func (m *memoryStore) SaveBars(bars []models.PriceBar) error {
	m.bars = append(m.bars, bars...)
	return nil
}

func (m *memoryStore) GetLatestBar(symbol string) (*models.PriceBar, error) {
	if len(m.bars) == 0 {
		return nil, nil
	}
	latest := m.bars[len(m.bars)-1]
	return &latest, nil
}

type stubSource struct {
	calls []time.Time
	err   error
}

func (s *stubSource) FetchDailyBars(ctx context.Context, symbol string, since time.Time) ([]models.PriceBar, error) {
	s.calls = append(s.calls, since)
	if s.err != nil {
		return nil, s.err
	}
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, len(s.calls))
	return []models.PriceBar{{Symbol: symbol, Date: day, Open: 1, High: 1, Low: 1, Close: 1}}, nil
}

func TestPriceRecorderFetchesFromLatestBar(t *testing.T) {
	store := &memoryStore{}
	source := &stubSource{}
	recorder := NewPriceRecorder(source, store, []string{"BTCUSDT"}, zerolog.Nop())

	require.NoError(t, recorder.Record(context.Background(), "BTCUSDT"))
	require.NoError(t, recorder.Record(context.Background(), "BTCUSDT"))

	require.Len(t, source.calls, 2)
	assert.True(t, source.calls[0].IsZero())
	assert.Equal(t, store.bars[0].Date, source.calls[1])
	assert.Equal(t, 1, recorder.RecordAll(context.Background()))
}

func TestPriceRecorderCountsFailures(t *testing.T) {
	recorder := NewPriceRecorder(&stubSource{err: errors.New("down")}, &memoryStore{}, []string{"A", "B"}, zerolog.Nop())
	assert.Equal(t, 0, recorder.RecordAll(context.Background()))
}
