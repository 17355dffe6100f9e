package trading

import (
	"TradeSimulator/internal/models"
	"TradeSimulator/internal/operations/price"
	"TradeSimulator/internal/operations/simulator"
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RunArchiver persists settled runs.
type RunArchiver interface {
	Archive(ctx context.Context, run *models.Run) error
}

type SessionSettings struct {
	Simulator         simulator.Config
	ObservationDays   int
	MinSimulationDays int
	ViewDays          int
}

// Session is one user's simulation run over one symbol. All methods are
// safe for concurrent use; operations are serialized.
type Session struct {
	id     string
	symbol string
	asset  models.AssetClass

	mu        sync.Mutex
	sim       *simulator.Simulator
	settings  SessionSettings
	rng       *rand.Rand
	window    price.Window
	runID     string
	archived  bool
	archiver  RunArchiver
	lastUsed  time.Time
	createdAt time.Time
	log       zerolog.Logger
}

// Summary is the dashboard header of a session.
type Summary struct {
	Symbol         string    `json:"symbol"`
	AssetClass     string    `json:"asset_class"`
	Unit           string    `json:"unit"`
	Date           time.Time `json:"date"`
	ReferencePrice float64   `json:"reference_price"`
	Cash           float64   `json:"cash"`
	TotalAsset     float64   `json:"total_asset"`
	UnrealizedPnL  float64   `json:"unrealized_pnl"`
	SpotQuantity   float64   `json:"spot_quantity"`
	DaysPassed     int       `json:"days_passed"`
	DaysRemaining  int       `json:"days_remaining"`
	MaxLeverage    float64   `json:"max_leverage"`
	Active         bool      `json:"active"`
}

type SessionView struct {
	ID       string             `json:"id"`
	Summary  Summary            `json:"summary"`
	Snapshot simulator.Snapshot `json:"snapshot"`
}

func NewSession(id string, series *models.PriceSeries, asset models.AssetClass, settings SessionSettings, rng *rand.Rand, archiver RunArchiver, log zerolog.Logger) (*Session, error) {
	window, err := price.SelectWindow(rng, series.Len(), settings.ObservationDays, settings.MinSimulationDays)
	if err != nil {
		return nil, err
	}

	config := settings.Simulator
	config.Asset = asset
	sessionLog := log.With().Str("session_id", id).Logger()
	sim, err := simulator.NewSimulator(config, series, window.SimStart, sessionLog)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		id:        id,
		symbol:    series.Symbol(),
		asset:     asset,
		sim:       sim,
		settings:  settings,
		rng:       rng,
		window:    window,
		runID:     uuid.NewString(),
		archiver:  archiver,
		lastUsed:  now,
		createdAt: now,
		log:       sessionLog,
	}
	session.log.Info().
		Str("symbol", session.symbol).
		Int("view_start", window.ViewStart).
		Int("sim_start", window.SimStart).
		Msg("Session started")
	return session, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Symbol() string {
	return s.symbol
}

func (s *Session) Asset() models.AssetClass {
	return s.asset
}

func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.lastUsed = time.Now()
}

// Open executes a lot of quantity units at today's open.
func (s *Session) Open(mode models.TradeMode, quantity, leverage float64) (*models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !s.asset.ValidQuantity(quantity) {
		return nil, fmt.Errorf("%w: minimum order is %g %s", models.ErrInvalidInput, s.asset.MinQuantity, s.asset.Unit)
	}
	return s.sim.Open(mode, quantity, s.sim.ReferencePrice(), leverage)
}

// OpenPercent sizes a lot as percent of cash, scaled by leverage and
// rounded down to the asset's order increment.
func (s *Session) OpenPercent(mode models.TradeMode, percent, leverage float64) (*models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if percent <= 0 || percent > 100 {
		return nil, fmt.Errorf("%w: percent must be within (0, 100]", models.ErrInvalidInput)
	}
	ref := s.sim.ReferencePrice()
	scale := 1.0
	if mode.IsMargin() {
		scale = leverage
	}
	quantity := s.asset.RoundDown(s.sim.Cash() * percent / 100 / ref * scale)
	if !s.asset.ValidQuantity(quantity) {
		return nil, fmt.Errorf("%w: %g%% of cash is below the minimum order of %g %s",
			models.ErrInvalidInput, percent, s.asset.MinQuantity, s.asset.Unit)
	}
	return s.sim.Open(mode, quantity, ref, leverage)
}

// Quote estimates the cash needed to open quantity at today's open.
func (s *Session) Quote(mode models.TradeMode, quantity, leverage float64) simulator.OpenQuote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Config().Quote(mode, quantity, s.sim.ReferencePrice(), leverage)
}

func (s *Session) SetProtection(positionID string, stopLoss, takeProfit float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.sim.SetProtection(positionID, stopLoss, takeProfit)
}

// Close realizes quantity of a lot at today's open.
func (s *Session) Close(positionID string, quantity float64) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.sim.Close(positionID, quantity, s.sim.ReferencePrice(), models.CloseReasonManual)
}

// ClosePercent closes percent of a lot, rounded down to the order
// increment. 100 always closes the whole lot.
func (s *Session) ClosePercent(positionID string, percent float64) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if percent <= 0 || percent > 100 {
		return nil, fmt.Errorf("%w: percent must be within (0, 100]", models.ErrInvalidInput)
	}
	position, err := s.sim.Position(positionID)
	if err != nil {
		return nil, err
	}
	quantity := position.Quantity
	if percent < 100 {
		quantity = s.asset.RoundDown(position.Quantity * percent / 100)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %g%% of the position is below the order increment", models.ErrInvalidInput, percent)
	}
	return s.sim.Close(positionID, quantity, s.sim.ReferencePrice(), models.CloseReasonManual)
}

// CloseAll flattens the book without ending the run. Settle ends it.
func (s *Session) CloseAll() ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.sim.CloseAll()
}

// PreviewPnL estimates the gross result of closing a whole lot at price.
func (s *Session) PreviewPnL(positionID string, price float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if price <= 0 {
		return 0, fmt.Errorf("%w: price must be positive", models.ErrInvalidInput)
	}
	position, err := s.sim.Position(positionID)
	if err != nil {
		return 0, err
	}
	return simulator.CalculatePnL(position.Direction(), position.Quantity, position.EntryPrice, price), nil
}

// Advance steps the clock. A run that reaches its last bar is settled and
// archived.
func (s *Session) Advance(ctx context.Context, days int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	triggered, err := s.sim.Advance(days)
	if err != nil {
		return triggered, err
	}
	if !s.sim.Active() {
		s.archive(ctx)
	}
	return triggered, nil
}

func (s *Session) Settle(ctx context.Context, forceEnd bool) (simulator.SettlementStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	stats, err := s.sim.Settle(forceEnd)
	if err != nil {
		return stats, err
	}
	s.archive(ctx)
	return stats, nil
}

// Reset starts a new run on a freshly drawn window of the same series.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	window, err := price.SelectWindow(s.rng, s.sim.Series().Len(), s.settings.ObservationDays, s.settings.MinSimulationDays)
	if err != nil {
		return err
	}
	if err := s.sim.Reset(window.SimStart); err != nil {
		return err
	}
	s.window = window
	s.runID = uuid.NewString()
	s.archived = false
	return nil
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.sim.Snapshot()
	bar := s.sim.CurrentBar()
	ref := s.sim.ReferencePrice()
	return SessionView{
		ID: s.id,
		Summary: Summary{
			Symbol:         s.symbol,
			AssetClass:     s.asset.Name,
			Unit:           s.asset.Unit,
			Date:           bar.Date,
			ReferencePrice: ref,
			Cash:           snapshot.Cash,
			TotalAsset:     s.sim.TotalAssetValue(ref),
			UnrealizedPnL:  s.sim.UnrealizedPnL(ref),
			SpotQuantity:   s.sim.SpotQuantity(),
			DaysPassed:     snapshot.CurrentIndex - snapshot.StartIndex + 1,
			DaysRemaining:  snapshot.TerminalIndex - snapshot.CurrentIndex,
			MaxLeverage:    s.sim.Config().MaxLeverage(),
			Active:         snapshot.Active,
		},
		Snapshot: snapshot,
	}
}

// Bars returns the chart window: up to limit bars ending at the current
// day, never reaching before the observation history.
func (s *Session) Bars(limit int) []models.PriceBar {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = s.settings.ViewDays
	}
	end := s.sim.CurrentIndex() + 1
	from := end - limit
	if limit <= 0 || from < s.window.ViewStart {
		from = s.window.ViewStart
	}
	return s.sim.Series().Range(from, end)
}

// archive stores the settled run once. Failures are logged; the
// settlement itself has already happened.
func (s *Session) archive(ctx context.Context) {
	if s.archived || s.archiver == nil {
		return
	}
	snapshot := s.sim.Snapshot()
	if snapshot.Stats == nil {
		return
	}
	stats := snapshot.Stats

	run := &models.Run{
		ID:             s.runID,
		SessionID:      s.id,
		Symbol:         s.symbol,
		AssetClass:     s.asset.Name,
		InitialCapital: stats.InitialCapital,
		FinalAsset:     stats.FinalAsset,
		TotalPnL:       stats.TotalPnL,
		ROI:            stats.ROI,
		TradeCount:     stats.TradeCount,
		WinRate:        stats.WinRate,
		TotalFees:      stats.TotalFees,
		MaxDrawdown:    stats.MaxDrawdown,
		SharpeRatio:    stats.SharpeRatio,
		EndedEarly:     stats.EndedEarly,
		StartDate:      stats.StartDate,
		EndDate:        stats.EndDate,
		SettledAt:      time.Now().UTC(),
		Transactions:   snapshot.Transactions,
	}
	if err := s.archiver.Archive(ctx, run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to archive run")
		return
	}
	s.archived = true
	s.log.Info().Str("run_id", run.ID).Str("roi", stats.ROIString()).Msg("Run archived")
}
