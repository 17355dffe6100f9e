package simulator

import (
	"TradeSimulator/internal/models"
	"TradeSimulator/internal/repositories"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Simulator replays a price series one day at a time against a cash
// account and a position book. It is not safe for concurrent use.
type Simulator struct {
	config    Config
	series    *models.PriceSeries
	positions *repositories.PositionRepository
	state     *State
	log       zerolog.Logger
	newID     func() string
}

func NewSimulator(config Config, series *models.PriceSeries, startIndex int, log zerolog.Logger) (*Simulator, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: price series is required", models.ErrInvalidInput)
	}
	if config.InitialCapital <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be positive", models.ErrInvalidInput)
	}
	if config.FeeRate < 0 || config.LeverageFeeRate < 0 {
		return nil, fmt.Errorf("%w: fee rates cannot be negative", models.ErrInvalidInput)
	}
	if config.MinMarginRate < 0 || config.MinMarginRate > 1 {
		return nil, fmt.Errorf("%w: minimum margin rate must be within [0, 1]", models.ErrInvalidInput)
	}

	s := &Simulator{
		config: config,
		series: series,
		log:    log.With().Str("component", "simulator").Str("symbol", series.Symbol()).Logger(),
		newID:  uuid.NewString,
	}
	if err := s.Reset(startIndex); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards every position and transaction and restarts the run at
// startIndex with the initial capital.
func (s *Simulator) Reset(startIndex int) error {
	terminal := s.series.Len() - 1
	if startIndex < 0 || startIndex >= terminal {
		return fmt.Errorf("%w: start index %d outside [0, %d)", models.ErrInvalidInput, startIndex, terminal)
	}

	s.positions = repositories.NewPositionRepository()
	s.state = &State{
		Cash:           s.config.InitialCapital,
		InitialCapital: s.config.InitialCapital,
		StartIndex:     startIndex,
		CurrentIndex:   startIndex,
		TerminalIndex:  terminal,
		Active:         true,
	}
	bar, _ := s.series.Bar(startIndex)
	s.state.EquityCurve = []EquityPoint{{DayIndex: startIndex, Date: bar.Date, Equity: s.config.InitialCapital}}

	s.log.Debug().
		Int("start_index", startIndex).
		Int("terminal_index", terminal).
		Float64("capital", s.config.InitialCapital).
		Msg("Simulation reset")
	return nil
}

func (s *Simulator) Config() Config {
	return s.config
}

func (s *Simulator) Series() *models.PriceSeries {
	return s.series
}

func (s *Simulator) Active() bool {
	return s.state.Active
}

func (s *Simulator) Cash() float64 {
	return s.state.Cash
}

func (s *Simulator) CurrentIndex() int {
	return s.state.CurrentIndex
}

func (s *Simulator) CurrentBar() models.PriceBar {
	bar, _ := s.series.Bar(s.state.CurrentIndex)
	return bar
}

// ReferencePrice is the open of the current day.
func (s *Simulator) ReferencePrice() float64 {
	return s.series.ReferencePrice(s.state.CurrentIndex)
}

func (s *Simulator) Position(id string) (*models.Position, error) {
	position, err := s.positions.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if position == nil {
		return nil, fmt.Errorf("position %s: %w", id, models.ErrNotFound)
	}
	return position, nil
}

func (s *Simulator) Positions() []models.Position {
	return s.positions.FindAll()
}

// UnrealizedPnL sums the mark-to-market PnL of every open lot at price.
func (s *Simulator) UnrealizedPnL(price float64) float64 {
	total := 0.0
	for _, p := range s.positions.FindAll() {
		total += CalculatePnL(p.Direction(), p.Quantity, p.EntryPrice, price)
	}
	return total
}

// TotalAssetValue is cash plus, for every lot, its committed margin and
// its mark-to-market PnL at price.
func (s *Simulator) TotalAssetValue(price float64) float64 {
	total := s.state.Cash
	for _, p := range s.positions.FindAll() {
		total += p.MarginCommitted + CalculatePnL(p.Direction(), p.Quantity, p.EntryPrice, price)
	}
	return total
}

// SpotQuantity is the total quantity held in Spot_Buy lots.
func (s *Simulator) SpotQuantity() float64 {
	total := 0.0
	for _, p := range s.positions.FindByMode(models.TradeModeSpotBuy) {
		total += p.Quantity
	}
	return total
}

func (s *Simulator) Snapshot() Snapshot {
	snap := Snapshot{
		Cash:           s.state.Cash,
		InitialCapital: s.state.InitialCapital,
		StartIndex:     s.state.StartIndex,
		CurrentIndex:   s.state.CurrentIndex,
		TerminalIndex:  s.state.TerminalIndex,
		Active:         s.state.Active,
		Positions:      s.positions.FindAll(),
		Transactions:   append([]models.Transaction(nil), s.state.Transactions...),
		EquityCurve:    append([]EquityPoint(nil), s.state.EquityCurve...),
	}
	if s.state.LastEvent != nil {
		event := *s.state.LastEvent
		snap.LastEvent = &event
	}
	if s.state.Stats != nil {
		stats := *s.state.Stats
		snap.Stats = &stats
	}
	return snap
}

func (s *Simulator) ensureActive() error {
	if !s.state.Active {
		return models.ErrRunFinished
	}
	return nil
}

func (s *Simulator) notify(kind EventKind, text string) {
	s.state.LastEvent = &Notification{Kind: kind, Text: text}
}

// reject records a failed operation as the last event and returns err.
func (s *Simulator) reject(err error) error {
	s.notify(EventError, err.Error())
	s.log.Debug().Err(err).Msg("Operation rejected")
	return err
}

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
