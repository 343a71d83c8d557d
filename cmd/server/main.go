package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/api"
	"github.com/fibrotrack-server/internal/assessment"
	"github.com/fibrotrack-server/internal/config"
	"github.com/fibrotrack-server/internal/database"
	"github.com/fibrotrack-server/internal/ml"
	"github.com/fibrotrack-server/internal/repository"
	"github.com/fibrotrack-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting FibroTrack server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect database and run migrations
	db, err := database.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	migrator, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), cfg.Database.MigrationsPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create migration runner")
	}
	if err := migrator.Up(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}
	migrator.Close()

	// Monthly assessment store
	store, err := newAssessmentStore(configManager)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open assessment store")
	}
	defer store.Close()

	// Predictors
	registry, err := ml.NewRegistry(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build predictor registry")
	}
	defer registry.Close()

	// Repositories and services
	entryRepo := repository.NewEntryRepository(db.Pool, logger)
	screeningRepo := repository.NewScreeningRepository(db.Pool, logger)
	summaryRepo := repository.NewSummaryRepository(db.Pool, logger)
	profileRepo := repository.NewProfileRepository(db.Pool, logger)

	normalizer := service.NewNormalizer()
	primaryEngine := service.NewPrimaryRuleEngine(logger)

	entryService := service.NewEntryService(entryRepo, normalizer, logger)
	screeningService := service.NewScreeningService(
		screeningRepo, primaryEngine, registry.Risk(), normalizer, cfg.Scoring, logger)
	rollupService := service.NewRollupService(entryRepo, summaryRepo, cfg.Scoring, logger)
	monthlyService := service.NewMonthlyService(store, registry.Severity(), logger)
	profileService := service.NewProfileService(profileRepo, normalizer, logger)

	server := api.NewServer(
		configManager, entryService, screeningService, rollupService, monthlyService,
		profileService, db, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from configuration.
func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// newAssessmentStore opens the configured monthly assessment backend.
func newAssessmentStore(configManager *config.Manager) (assessment.Store, error) {
	cfg := configManager.GetConfig()
	switch cfg.Assessment.Backend {
	case "postgres":
		return assessment.NewPostgresStore(configManager.GetDatabaseURL())
	default:
		return assessment.NewSQLiteStore(cfg.Assessment.SQLitePath)
	}
}
