package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the lostfound service and match worker.
// Environment variables are parsed with the LOSTFOUND_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud
	BuildTarget string      `envconfig:"BUILD_TARGET" default:"local"`
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort      int    `envconfig:"HTTP_PORT" default:"8080"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	// Storage; "auto" is derived from BuildTarget
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/lostfound.db"`

	// Similarity oracle (OpenAI-compatible chat completions)
	OracleURL            string `envconfig:"ORACLE_URL" default:"https://ai.gateway.lovable.dev"`
	OracleAPIKey         string `envconfig:"ORACLE_API_KEY" default:""`
	OracleModel          string `envconfig:"ORACLE_MODEL" default:"google/gemini-2.5-flash"`
	OracleTimeoutSeconds int    `envconfig:"ORACLE_TIMEOUT_SECONDS" default:"20"`

	// Matching thresholds
	AcceptThreshold  int `envconfig:"ACCEPT_THRESHOLD" default:"60"`
	PersistThreshold int `envconfig:"PERSIST_THRESHOLD" default:"70"`
	MaxCandidates    int `envconfig:"MAX_CANDIDATES" default:"20"`

	// Identity
	JWTSecret string `envconfig:"JWT_SECRET" default:""`
	DevMode   bool   `envconfig:"DEV_MODE" default:"false"`

	// Photo storage; "auto" is derived from BuildTarget
	ImageStore string `envconfig:"IMAGE_STORE" default:"auto"`
	GCSBucket  string `envconfig:"GCS_BUCKET" default:""`
	// Optional service-account JSON; Application Default Credentials otherwise
	GCSCredentialsFile string `envconfig:"GCS_CREDENTIALS_FILE" default:""`
	ImageDir           string `envconfig:"IMAGE_DIR" default:"./data/images"`

	// Match worker
	WorkerEnabled         bool `envconfig:"WORKER_ENABLED" default:"true"`
	WorkerIntervalSeconds int  `envconfig:"WORKER_INTERVAL_SECONDS" default:"2"`
	WorkerBatchSize       int  `envconfig:"WORKER_BATCH_SIZE" default:"10"`

	// Health
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthCheckTimeoutSeconds int `envconfig:"HEALTH_CHECK_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver and ImageStore when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB, defaultImages string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
		defaultImages = "local"
	case "cloud":
		defaultDB = "postgres"
		defaultImages = "gcs"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}
	if c.ImageStore == "" || c.ImageStore == "auto" {
		c.ImageStore = defaultImages
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	allowedImages := map[string]bool{"gcs": true, "local": true}
	if !allowedImages[c.ImageStore] {
		return fmt.Errorf("unsupported IMAGE_STORE: %s", c.ImageStore)
	}
	return c.validateMatching()
}

func (c *Config) validateMatching() error {
	if c.AcceptThreshold < 0 || c.AcceptThreshold > 100 {
		return fmt.Errorf("ACCEPT_THRESHOLD must be within 0..100, got %d", c.AcceptThreshold)
	}
	if c.PersistThreshold < 0 || c.PersistThreshold > 100 {
		return fmt.Errorf("PERSIST_THRESHOLD must be within 0..100, got %d", c.PersistThreshold)
	}
	if c.PersistThreshold < c.AcceptThreshold {
		return fmt.Errorf("PERSIST_THRESHOLD (%d) must not be below ACCEPT_THRESHOLD (%d)", c.PersistThreshold, c.AcceptThreshold)
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("MAX_CANDIDATES must be positive, got %d", c.MaxCandidates)
	}
	if c.OracleTimeoutSeconds < 1 {
		return fmt.Errorf("ORACLE_TIMEOUT_SECONDS must be positive, got %d", c.OracleTimeoutSeconds)
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Environment variables should be prefixed with LOSTFOUND_
// Example: LOSTFOUND_POSTGRES_DSN, LOSTFOUND_HTTP_PORT
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("LOSTFOUND", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("image_store", cfg.ImageStore).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("oracle_url", cfg.OracleURL).
		Str("oracle_model", cfg.OracleModel).
		Bool("oracle_key_present", cfg.OracleAPIKey != "").
		Int("accept_threshold", cfg.AcceptThreshold).
		Int("persist_threshold", cfg.PersistThreshold).
		Int("max_candidates", cfg.MaxCandidates).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Bool("worker_enabled", cfg.WorkerEnabled).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8080,
		PublicBaseURL:             "http://localhost:8080",
		DBDriver:                  "sqlite",
		SQLitePath:                ":memory:",
		OracleURL:                 "http://localhost:0",
		OracleModel:               "test-model",
		OracleTimeoutSeconds:      5,
		AcceptThreshold:           60,
		PersistThreshold:          70,
		MaxCandidates:             20,
		JWTSecret:                 "test-secret",
		DevMode:                   true,
		ImageStore:                "local",
		ImageDir:                  "./testdata/images",
		WorkerEnabled:             false,
		WorkerIntervalSeconds:     1,
		WorkerBatchSize:           10,
		HealthIntervalSeconds:     1,
		HealthCheckTimeoutSeconds: 1,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// IsDevMode reports whether the static development identity is accepted.
// Never true in production.
func (c *Config) IsDevMode() bool {
	return c.DevMode && !c.IsProduction()
}

// OracleTimeout is the per-call deadline applied to each oracle invocation.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.OracleTimeoutSeconds) * time.Second
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
