package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/config"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/database"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/price"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/service"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/version"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := logging.New(cfg.Log.Environment, cfg.Log.Level)
	logger.WithField("version", version.Version).Info("starting lot ledger")

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schemaVersion, err := database.Migrate(ctx, db)
	if err != nil {
		logger.WithError(err).Fatal("failed to migrate database")
	}
	logger.WithFields(logrus.Fields{
		"path":           cfg.Database.Path,
		"schema_version": schemaVersion,
	}).Info("connected to database")

	// Create repositories
	accountRepo := repository.NewAccountRepository(db)
	lotRepo := repository.NewLotRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	priceRepo := repository.NewPriceRepository(db)

	// Price oracle: Yahoo chart API behind the persisted cache
	oracle := price.NewCachedOracle(
		price.NewYahooOracle(yahoo.NewFinanceClient(cfg.Price.YahooBaseURL)),
		priceRepo,
		cfg.Price.CacheTTL,
		logger,
	)

	// Create services
	lotService := service.NewLotService(db, accountRepo, lotRepo, saleRepo, oracle, logger)
	services := api.Services{
		System:  service.NewSystemService(db),
		Account: service.NewAccountService(accountRepo, logger),
		Lot:     lotService,
		Sale:    service.NewSaleService(db, accountRepo, lotRepo, saleRepo, lotService, logger),
		Gain:    service.NewGainService(db, accountRepo, lotRepo, saleRepo, oracle, cfg.Price.LookupConcurrency, logger),
	}

	refresher := price.NewRefresher(oracle, lotRepo, logger)
	if cfg.Price.RefreshSchedule != "" {
		if err := refresher.Start(cfg.Price.RefreshSchedule); err != nil {
			logger.WithError(err).Fatal("failed to schedule price refresh")
		}
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(services, cfg, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			logger.WithError(err).Error("server failed")
		}
	}

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	refresher.Stop(shutdownCtx)

	logger.Info("server exited")
}
