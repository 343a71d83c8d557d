package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/fibrotrack-server/internal/domain"
)

// Manager implements the ConfigManager interface using Viper.
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment and defaults.
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/fibrotrack-server/")

	viper.SetEnvPrefix("FIBROTRACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars suffice.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values.
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.request_timeout", "25s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "fibrotrack")
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_conns", 25)
	viper.SetDefault("database.min_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("database.conn_max_idle_time", "30m")
	viper.SetDefault("database.migrations_path", "migrations")

	// Monthly assessment store defaults
	viper.SetDefault("assessment.backend", "postgres")
	viper.SetDefault("assessment.sqlite_path", "data/assessments.db")

	// Cache defaults
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.redis_url", "redis://localhost:6379")
	viper.SetDefault("cache.default_ttl", "24h")
	viper.SetDefault("cache.max_retries", 3)
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.pool_timeout", "4s")
	viper.SetDefault("cache.memory_items", 1024)

	// Predictor defaults; empty base_url disables the ML override path.
	viper.SetDefault("predictor.base_url", "")
	viper.SetDefault("predictor.timeout", "3s")
	viper.SetDefault("predictor.rate_limit", 10)
	// Label order of the trained classifier (LabelEncoder is alphabetical).
	viper.SetDefault("predictor.classes", []string{"High", "Low", "Moderate"})

	// Canonical scoring scheme: 0.6 primary / 0.3 secondary / 0.1 risk,
	// High at 0.7, Moderate at 0.4, final report after 12 weeks.
	viper.SetDefault("scoring.primary_weight", 0.6)
	viper.SetDefault("scoring.secondary_weight", 0.3)
	viper.SetDefault("scoring.risk_weight", 0.1)
	viper.SetDefault("scoring.high_threshold", 0.7)
	viper.SetDefault("scoring.moderate_threshold", 0.4)
	viper.SetDefault("scoring.min_report_weeks", 12)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration.
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetDatabaseConfig returns database configuration.
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetScoringConfig returns the scoring weights and thresholds.
func (m *Manager) GetScoringConfig() *domain.ScoringConfig {
	return &m.config.Scoring
}

// Validate validates the configuration.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if config.Database.Username == "" {
		return fmt.Errorf("database username is required")
	}

	switch config.Assessment.Backend {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid assessment backend: %s", config.Assessment.Backend)
	}

	s := config.Scoring
	weightSum := s.PrimaryWeight + s.SecondaryWeight + s.RiskWeight
	if math.Abs(weightSum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", weightSum)
	}
	if s.ModerateThreshold <= 0 || s.HighThreshold <= s.ModerateThreshold || s.HighThreshold > 1 {
		return fmt.Errorf("invalid category thresholds: moderate=%.2f high=%.2f", s.ModerateThreshold, s.HighThreshold)
	}
	if s.MinReportWeeks < 1 {
		return fmt.Errorf("min_report_weeks must be positive, got %d", s.MinReportWeeks)
	}

	if len(config.Predictor.Classes) != 3 && config.Predictor.BaseURL != "" {
		return fmt.Errorf("predictor.classes must list exactly 3 labels, got %d", len(config.Predictor.Classes))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// GetDatabaseURL returns a migration-compatible database URL.
func (m *Manager) GetDatabaseURL() string {
	db := m.config.Database
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.Username, db.Password, db.Host, db.Port, db.Database, db.SSLMode)
}

// IsProduction returns true if running in production mode.
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}
