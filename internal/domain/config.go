package domain

import "time"

// Config is the complete server configuration.
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Assessment  AssessmentConfig `mapstructure:"assessment"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Predictor   PredictorConfig  `mapstructure:"predictor"`
	Scoring     ScoringConfig    `mapstructure:"scoring"`
	Logging     LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// AssessmentConfig selects the backend for the monthly assessment store.
type AssessmentConfig struct {
	Backend    string `mapstructure:"backend"` // postgres or sqlite
	SQLitePath string `mapstructure:"sqlite_path"`
}

// CacheConfig holds Redis settings for the prediction cache tier.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
	MemoryItems int           `mapstructure:"memory_items"` // in-process LRU size
}

// PredictorConfig holds settings for the ML inference service. An empty
// BaseURL disables the predictor entirely; the system then runs rule-based
// only.
type PredictorConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"` // requests per second
	Classes   []string      `mapstructure:"classes"`    // label order of the trained model
}

// ScoringConfig holds the canonical composite weights and category
// thresholds. These are configuration, not hidden literals; defaults match
// the documented screening formula (0.6 primary / 0.3 secondary / 0.1 risk).
type ScoringConfig struct {
	PrimaryWeight     float64 `mapstructure:"primary_weight"`
	SecondaryWeight   float64 `mapstructure:"secondary_weight"`
	RiskWeight        float64 `mapstructure:"risk_weight"`
	HighThreshold     float64 `mapstructure:"high_threshold"`
	ModerateThreshold float64 `mapstructure:"moderate_threshold"`
	MinReportWeeks    int     `mapstructure:"min_report_weeks"`
}

// LoggingConfig holds logrus settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
	Output string `mapstructure:"output"`
}
