package models

import (
	"fmt"
	"time"
)

// PriceBar is one daily OHLCV row. Indicator columns are derived on load
// and never persisted.
type PriceBar struct {
	ID     uint      `gorm:"primaryKey" json:"-"`
	Symbol string    `gorm:"uniqueIndex:idx_price_symbol_date;not null" json:"-"`
	Date   time.Time `gorm:"uniqueIndex:idx_price_symbol_date;not null" json:"date"`
	Open   float64   `gorm:"type:decimal(20,8);not null" json:"open"`
	High   float64   `gorm:"type:decimal(20,8);not null" json:"high"`
	Low    float64   `gorm:"type:decimal(20,8);not null" json:"low"`
	Close  float64   `gorm:"type:decimal(20,8);not null" json:"close"`
	Volume float64   `gorm:"type:decimal(30,8)" json:"volume"`

	MA5   float64 `gorm:"-" json:"ma5"`
	MA10  float64 `gorm:"-" json:"ma10"`
	MA20  float64 `gorm:"-" json:"ma20"`
	MA60  float64 `gorm:"-" json:"ma60"`
	MA120 float64 `gorm:"-" json:"ma120"`
	RSI14 float64 `gorm:"-" json:"rsi14"`

	FetchedAt time.Time `gorm:"index" json:"-"`
}

func (PriceBar) TableName() string {
	return "price_bars"
}

// PriceSeries is an immutable, date-ordered run of daily bars.
type PriceSeries struct {
	symbol string
	bars   []PriceBar
}

func NewPriceSeries(symbol string, bars []PriceBar) (*PriceSeries, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: price series for %s is empty", ErrInvalidInput, symbol)
	}
	copied := make([]PriceBar, len(bars))
	copy(copied, bars)
	for i, bar := range copied {
		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			return nil, fmt.Errorf("%w: non-positive price on %s", ErrInvalidInput, bar.Date.Format(time.DateOnly))
		}
		if i > 0 && !bar.Date.After(copied[i-1].Date) {
			return nil, fmt.Errorf("%w: bars out of order at %s", ErrInvalidInput, bar.Date.Format(time.DateOnly))
		}
	}
	return &PriceSeries{symbol: symbol, bars: copied}, nil
}

func (s *PriceSeries) Symbol() string {
	return s.symbol
}

func (s *PriceSeries) Len() int {
	return len(s.bars)
}

func (s *PriceSeries) Bar(i int) (PriceBar, bool) {
	if i < 0 || i >= len(s.bars) {
		return PriceBar{}, false
	}
	return s.bars[i], true
}

// ReferencePrice is the price every manual action on day i executes at.
func (s *PriceSeries) ReferencePrice(i int) float64 {
	bar, ok := s.Bar(i)
	if !ok {
		return 0
	}
	return bar.Open
}

// Range returns a copy of bars[from:to] clamped to the series bounds.
func (s *PriceSeries) Range(from, to int) []PriceBar {
	if from < 0 {
		from = 0
	}
	if to > len(s.bars) {
		to = len(s.bars)
	}
	if from >= to {
		return nil
	}
	out := make([]PriceBar, to-from)
	copy(out, s.bars[from:to])
	return out
}
