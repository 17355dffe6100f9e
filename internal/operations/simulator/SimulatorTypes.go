package simulator

import (
	"TradeSimulator/internal/models"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultInitialCapital  = 100000.0
	DefaultFeeRate         = 0.005
	DefaultLeverageFeeRate = 0.01
	DefaultMinMarginRate   = 0.05

	// Trading days per year used to annualize the Sharpe ratio
	tradingDaysPerYear = 252

	quantityEpsilon = 1e-9
)

// Simulation config
type Config struct {
	InitialCapital  float64
	FeeRate         float64
	LeverageFeeRate float64
	MinMarginRate   float64

	// Asset supplies display labels for transaction records
	Asset models.AssetClass
}

// NewConfig creates default config
func NewConfig() Config {
	return Config{
		InitialCapital:  DefaultInitialCapital,
		FeeRate:         DefaultFeeRate,
		LeverageFeeRate: DefaultLeverageFeeRate,
		MinMarginRate:   DefaultMinMarginRate,
	}
}

// MaxLeverage is the highest leverage a margin lot may be opened with.
func (c Config) MaxLeverage() float64 {
	if c.MinMarginRate <= 0 {
		return math.Inf(1)
	}
	return 1 / c.MinMarginRate
}

// FeeRateFor returns the per-side fee rate charged for a mode.
func (c Config) FeeRateFor(mode models.TradeMode) float64 {
	if mode.IsMargin() {
		return c.LeverageFeeRate
	}
	return c.FeeRate
}

// OpenQuote is the cash arithmetic of a prospective open.
type OpenQuote struct {
	Cost             float64 `json:"cost"`
	Fee              float64 `json:"fee"`
	Margin           float64 `json:"margin"`
	Required         float64 `json:"required"`
	Leverage         float64 `json:"leverage"`
	LiquidationPrice float64 `json:"liquidation_price"`
}

// Quote prices an open without validating it. Spot ignores leverage.
func (c Config) Quote(mode models.TradeMode, quantity, price, leverage float64) OpenQuote {
	if !mode.IsMargin() || leverage < 1 {
		leverage = 1
	}
	cost := quantity * price
	quote := OpenQuote{
		Cost:     cost,
		Fee:      cost * c.FeeRateFor(mode),
		Margin:   cost / leverage,
		Leverage: leverage,
	}
	quote.Required = quote.Margin + quote.Fee
	if mode.IsMargin() {
		quote.LiquidationPrice = LiquidationPrice(mode.Direction(), price, leverage)
	}
	return quote
}

type EventKind string

const (
	EventSuccess EventKind = "success"
	EventError   EventKind = "error"
	EventInfo    EventKind = "info"
)

// Notification is the last user-visible outcome of an operation
type Notification struct {
	Kind EventKind `json:"kind"`
	Text string    `json:"text"`
}

// For tracking equity changes
type EquityPoint struct {
	DayIndex int       `json:"day_index"`
	Date     time.Time `json:"date"`
	Equity   float64   `json:"equity"`
}

// Final settlement results
type SettlementStats struct {
	InitialCapital float64   `json:"initial_capital"`
	FinalAsset     float64   `json:"final_asset"`
	TotalPnL       float64   `json:"total_pnl"`
	ROI            float64   `json:"roi"`
	StartIndex     int       `json:"start_index"`
	EndIndex       int       `json:"end_index"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	EndedEarly     bool      `json:"ended_early"`

	// Trade metrics
	TradeCount    int     `json:"trade_count"`
	WinningTrades int     `json:"winning_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalFees     float64 `json:"total_fees"`

	// Performance metrics
	MaxDrawdown float64 `json:"max_drawdown"`
	SharpeRatio float64 `json:"sharpe_ratio"`
}

// ROIString formats ROI as a signed percentage with two decimals, e.g. "+5.00%".
func (s SettlementStats) ROIString() string {
	roi := decimal.NewFromFloat(s.ROI).Round(2)
	sign := ""
	if !roi.IsNegative() {
		sign = "+"
	}
	return sign + roi.StringFixed(2) + "%"
}

// State is the full mutable state of one simulation run
type State struct {
	Cash           float64
	InitialCapital float64
	StartIndex     int
	CurrentIndex   int
	TerminalIndex  int
	Active         bool
	Transactions   []models.Transaction
	EquityCurve    []EquityPoint
	LastEvent      *Notification
	Stats          *SettlementStats
}

// Snapshot is a read-only copy of the state handed to presentation layers
type Snapshot struct {
	Cash           float64              `json:"cash"`
	InitialCapital float64              `json:"initial_capital"`
	StartIndex     int                  `json:"start_index"`
	CurrentIndex   int                  `json:"current_index"`
	TerminalIndex  int                  `json:"terminal_index"`
	Active         bool                 `json:"active"`
	Positions      []models.Position    `json:"positions"`
	Transactions   []models.Transaction `json:"transactions"`
	EquityCurve    []EquityPoint        `json:"equity_curve"`
	LastEvent      *Notification        `json:"last_event,omitempty"`
	Stats          *SettlementStats     `json:"stats,omitempty"`
}
