package trading

import (
	"TradeSimulator/internal/models"
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SeriesLoader produces the enriched daily series of a symbol.
type SeriesLoader interface {
	LoadSeries(ctx context.Context, symbol string, asset models.AssetClass) (*models.PriceSeries, error)
}

type ManagerConfig struct {
	Settings SessionSettings
	Assets   map[string]models.AssetClass
	// Seed makes window selection reproducible when non-zero
	Seed    int64
	IdleTTL time.Duration
}

// SessionManager owns every live session.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	loader   SeriesLoader
	archiver RunArchiver
	config   ManagerConfig
	cron     *cron.Cron
	log      zerolog.Logger
}

func NewSessionManager(config ManagerConfig, loader SeriesLoader, archiver RunArchiver, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		loader:   loader,
		archiver: archiver,
		config:   config,
		log:      log.With().Str("component", "session_manager").Logger(),
	}
}

// Assets lists the configured asset classes by name.
func (m *SessionManager) Assets() []models.AssetClass {
	assets := make([]models.AssetClass, 0, len(m.config.Assets))
	for _, asset := range m.config.Assets {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets
}

// ValidateSymbol checks a ticker against the naming convention of its
// asset class: forex pairs end in "=X" or are six letters, crypto ends in
// "-USD" or "USDT", and stocks are neither.
func ValidateSymbol(assetClass, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", models.ErrInvalidInput)
	}
	isForex := strings.HasSuffix(symbol, "=X") || isCurrencyPair(symbol)
	isCrypto := strings.HasSuffix(symbol, "-USD") || strings.HasSuffix(symbol, "USDT")

	switch assetClass {
	case models.AssetClassForex:
		if !isForex {
			return fmt.Errorf("%w: forex symbols end with =X, e.g. EURUSD=X", models.ErrInvalidInput)
		}
	case models.AssetClassCrypto:
		if !isCrypto {
			return fmt.Errorf("%w: crypto symbols end with -USD or USDT, e.g. BTC-USD", models.ErrInvalidInput)
		}
	case models.AssetClassStock:
		if strings.HasSuffix(symbol, "=X") || isCrypto {
			return fmt.Errorf("%w: %s is not a stock symbol", models.ErrInvalidInput, symbol)
		}
	}
	return nil
}

func isCurrencyPair(symbol string) bool {
	if len(symbol) != 6 {
		return false
	}
	for _, r := range symbol {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Create loads the series for symbol and starts a session on it.
func (m *SessionManager) Create(ctx context.Context, assetClass, symbol string) (*Session, error) {
	asset, ok := m.config.Assets[assetClass]
	if !ok {
		return nil, fmt.Errorf("%w: unknown asset class %q", models.ErrInvalidInput, assetClass)
	}
	if err := ValidateSymbol(assetClass, symbol); err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	series, err := m.loader.LoadSeries(ctx, symbol, asset)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", symbol, err)
	}

	seed := m.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	session, err := NewSession(uuid.NewString(), series, asset, m.config.Settings, rand.New(rand.NewSource(seed)), m.archiver, m.log)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()
	return session, nil
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	return session, nil
}

func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	delete(m.sessions, id)
	return nil
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle drops sessions unused since before now-IdleTTL.
func (m *SessionManager) EvictIdle(now time.Time) int {
	if m.config.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.config.IdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, session := range m.sessions {
		if session.LastUsed().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		m.log.Info().Int("evicted", evicted).Int("remaining", len(m.sessions)).Msg("Evicted idle sessions")
	}
	return evicted
}

// StartJanitor schedules EvictIdle on a cron spec such as "@every 5m".
func (m *SessionManager) StartJanitor(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { m.EvictIdle(time.Now()) }); err != nil {
		return fmt.Errorf("schedule session janitor: %w", err)
	}
	c.Start()
	m.cron = c
	return nil
}

// Stop halts the janitor and waits for a running eviction to finish.
func (m *SessionManager) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}
