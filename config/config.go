package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"TradeSimulator/internal/models"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Defaults returns the built-in configuration.
func Defaults() config {
	return config{
		Simulation: SimulationConfig{
			InitialCapital:    100000,
			ObservationDays:   250,
			MinSimulationDays: 720,
			ViewDays:          100,
			SessionIdleTTL:    Duration{2 * time.Hour},
			JanitorSpec:       "@every 5m",
		},
		Fees: FeeConfig{
			FeeRate:         0.005,
			LeverageFeeRate: 0.01,
			MinMarginRate:   0.05,
		},
		Assets: models.DefaultAssetClasses(),
		Database: DatabaseConfig{
			Port:       5432,
			SQLitePath: "tradesim.db",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Prices: PriceConfig{
			DataDir:    "data",
			CacheTTL:   Duration{time.Hour},
			RecordSpec: "@daily",
		},
		LogLevel: "info",
	}
}

// Load layers the optional TOML file named by SIM_CONFIG_FILE over the
// defaults, then applies environment overrides. A missing .env is fine.
func Load() (*config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("SIM_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *config) {
	setFloat64(&cfg.Simulation.InitialCapital, "SIM_INITIAL_CAPITAL")
	setInt(&cfg.Simulation.ObservationDays, "SIM_OBSERVATION_DAYS")
	setInt(&cfg.Simulation.MinSimulationDays, "SIM_MIN_SIMULATION_DAYS")
	setInt(&cfg.Simulation.ViewDays, "SIM_VIEW_DAYS")
	setInt64(&cfg.Simulation.Seed, "SIM_SEED")
	setDuration(&cfg.Simulation.SessionIdleTTL, "SESSION_IDLE_TTL")

	setFloat64(&cfg.Fees.FeeRate, "SIM_FEE_RATE")
	setFloat64(&cfg.Fees.LeverageFeeRate, "SIM_LEVERAGE_FEE_RATE")
	setFloat64(&cfg.Fees.MinMarginRate, "SIM_MIN_MARGIN_RATE")

	setStr(&cfg.Exchange.APIKey, "BINANCE_API_KEY")
	setStr(&cfg.Exchange.SecretKey, "BINANCE_SECRET_KEY")

	setStr(&cfg.Database.Driver, "DB_DRIVER")
	setStr(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setStr(&cfg.Database.User, "DB_USER")
	setStr(&cfg.Database.Password, "DB_PASSWORD")
	setStr(&cfg.Database.DBName, "DB_NAME")
	setStr(&cfg.Database.SQLitePath, "DB_SQLITE_PATH")

	setInt(&cfg.Server.Port, "PORT")
	setStringSlice(&cfg.Server.AllowedOrigins, "CORS_ALLOWED_ORIGINS")
	setBool(&cfg.Server.PrettyLogs, "LOG_PRETTY")

	setStr(&cfg.Prices.DataDir, "PRICE_DATA_DIR")
	setDuration(&cfg.Prices.CacheTTL, "PRICE_CACHE_TTL")
	setStringSlice(&cfg.Prices.WatchSymbols, "WATCH_SYMBOLS")

	setStr(&cfg.LogLevel, "LOG_LEVEL")
}

func (c config) Validate() error {
	var errs []error
	if c.Simulation.InitialCapital <= 0 {
		errs = append(errs, errors.New("simulation.initial_capital must be positive"))
	}
	if c.Simulation.ObservationDays < 0 || c.Simulation.MinSimulationDays < 0 {
		errs = append(errs, errors.New("simulation window lengths cannot be negative"))
	}
	if c.Fees.FeeRate < 0 || c.Fees.LeverageFeeRate < 0 {
		errs = append(errs, errors.New("fee rates cannot be negative"))
	}
	if c.Fees.MinMarginRate <= 0 || c.Fees.MinMarginRate > 1 {
		errs = append(errs, errors.New("fees.min_margin_rate must be within (0, 1]"))
	}
	if len(c.Assets) == 0 {
		errs = append(errs, errors.New("at least one asset class is required"))
	}
	for name, asset := range c.Assets {
		if asset.Name != name {
			errs = append(errs, fmt.Errorf("asset %q: name must match its key", name))
		}
		if asset.MinQuantity <= 0 {
			errs = append(errs, fmt.Errorf("asset %q: min_quantity must be positive", name))
		}
	}
	switch c.Database.Driver {
	case "", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}

// PostgresDSN formats the connection string for the postgres driver.
func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.DBName)
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
