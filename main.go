package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradeSimulator/config"
	"TradeSimulator/internal/handlers"
	"TradeSimulator/internal/logger"
	"TradeSimulator/internal/models"
	"TradeSimulator/internal/operations/binance"
	"TradeSimulator/internal/operations/price"
	"TradeSimulator/internal/operations/simulator"
	"TradeSimulator/internal/repositories"
	"TradeSimulator/internal/services/trading"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.Server.PrettyLogs})
	logger.SetGlobalLogger(log)

	// Setup database; nil when persistence is disabled
	db, err := setupDatabase(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up database")
	}

	var (
		priceStore handlers.PriceStore
		barStore   price.BarStore
		archiver   trading.RunArchiver
		runStore   handlers.RunStore
	)
	if db != nil {
		priceRepo := repositories.NewPriceRepository(db)
		runRepo := repositories.NewRunRepository(db)
		priceStore, barStore = priceRepo, priceRepo
		archiver, runStore = runRepo, runRepo
	}

	// Price sources per asset class
	binanceClient := binance.NewBinanceClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey)
	cryptoSource := price.NewPriceFetcher(binanceClient, log)
	csvSource := price.NewCSVSource(cfg.Prices.DataDir)
	sources := map[string]price.BarSource{
		models.AssetClassCrypto: cryptoSource,
		models.AssetClassStock:  csvSource,
		models.AssetClassForex:  csvSource,
	}

	priceHandler := handlers.NewPriceHandler(priceStore, sources, cfg.Prices.CacheTTL.Duration, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if barStore != nil && len(cfg.Prices.WatchSymbols) > 0 {
		recorder := price.NewPriceRecorder(cryptoSource, barStore, cfg.Prices.WatchSymbols, log)
		if err := priceHandler.StartRecording(ctx, recorder, cfg.Prices.RecordSpec); err != nil {
			log.Fatal().Err(err).Msg("Failed to start price recording")
		}
		log.Info().Strs("symbols", cfg.Prices.WatchSymbols).Msg("Price recording started")
	}

	simConfig := simulator.Config{
		InitialCapital:  cfg.Simulation.InitialCapital,
		FeeRate:         cfg.Fees.FeeRate,
		LeverageFeeRate: cfg.Fees.LeverageFeeRate,
		MinMarginRate:   cfg.Fees.MinMarginRate,
	}
	sessions := trading.NewSessionManager(trading.ManagerConfig{
		Settings: trading.SessionSettings{
			Simulator:         simConfig,
			ObservationDays:   cfg.Simulation.ObservationDays,
			MinSimulationDays: cfg.Simulation.MinSimulationDays,
			ViewDays:          cfg.Simulation.ViewDays,
		},
		Assets:  cfg.Assets,
		Seed:    cfg.Simulation.Seed,
		IdleTTL: cfg.Simulation.SessionIdleTTL.Duration,
	}, priceHandler, archiver, log)

	if err := sessions.StartJanitor(cfg.Simulation.JanitorSpec); err != nil {
		log.Fatal().Err(err).Msg("Failed to start session janitor")
	}

	sessionHandler := handlers.NewSessionHandler(sessions, runStore, log)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handlers.NewRouter(sessionHandler, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Simulator listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Handle shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	log.Info().Msg("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown")
	}
	sessions.Stop()
	priceHandler.Stop()

	log.Info().Msg("Shutdown complete")
}

func setupDatabase(dbConfig config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbConfig.Driver {
	case "postgres":
		dialector = postgres.Open(dbConfig.PostgresDSN())
	case "sqlite":
		dialector = sqlite.Open(dbConfig.SQLitePath)
	default:
		log.Warn().Msg("No database configured; prices are not cached and runs are not archived")
		return nil, nil
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Gorm(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate database schemas
	if err := db.AutoMigrate(&models.PriceBar{}, &models.Run{}, &models.Transaction{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("driver", dbConfig.Driver).Msg("Database ready")
	return db, nil
}
