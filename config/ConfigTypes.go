package config

import (
	"time"

	"TradeSimulator/internal/models"
)

type config struct {
	Simulation SimulationConfig             `toml:"simulation"`
	Fees       FeeConfig                    `toml:"fees"`
	Assets     map[string]models.AssetClass `toml:"assets"`
	Exchange   ExchangeConfig               `toml:"exchange"`
	Database   DatabaseConfig               `toml:"database"`
	Server     ServerConfig                 `toml:"server"`
	Prices     PriceConfig                  `toml:"prices"`
	LogLevel   string                       `toml:"log_level"`
}

type SimulationConfig struct {
	InitialCapital    float64  `toml:"initial_capital"`
	ObservationDays   int      `toml:"observation_days"`
	MinSimulationDays int      `toml:"min_simulation_days"`
	ViewDays          int      `toml:"view_days"`
	Seed              int64    `toml:"seed"`
	SessionIdleTTL    Duration `toml:"session_idle_ttl"`
	JanitorSpec       string   `toml:"janitor_spec"`
}

type FeeConfig struct {
	FeeRate         float64 `toml:"fee_rate"`
	LeverageFeeRate float64 `toml:"leverage_fee_rate"`
	MinMarginRate   float64 `toml:"min_margin_rate"`
}

type ExchangeConfig struct {
	APIKey    string `toml:"-"`
	SecretKey string `toml:"-"`
}

// Driver is "postgres", "sqlite" or "" for no persistence.
type DatabaseConfig struct {
	Driver     string `toml:"driver"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	User       string `toml:"user"`
	Password   string `toml:"-"`
	DBName     string `toml:"dbname"`
	SQLitePath string `toml:"sqlite_path"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	PrettyLogs     bool     `toml:"pretty_logs"`
}

type PriceConfig struct {
	DataDir      string   `toml:"data_dir"`
	CacheTTL     Duration `toml:"cache_ttl"`
	WatchSymbols []string `toml:"watch_symbols"`
	RecordSpec   string   `toml:"record_spec"`
}

// Duration decodes TOML strings like "1h" or "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
