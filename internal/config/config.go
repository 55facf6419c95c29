package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/ReviewsGo/pkg/config"
)

// Config holds all configuration for the reviews service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"REVIEWS_HTTP_PORT" envDefault:"8086"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"reviews"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"reviews_secret"`
	PostgresDB   string `env:"REVIEWS_DB_NAME" envDefault:"reviews"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis, used for the duplicate-submission guard.
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REVIEWS_REDIS_DB" envDefault:"0"`
	SubmitWindow  time.Duration `env:"REVIEWS_SUBMIT_WINDOW" envDefault:"30s"`

	// Kafka
	KafkaBrokers    []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	ConsumerEnabled bool     `env:"REVIEWS_CONSUMER_ENABLED" envDefault:"true"`

	// Catalog service, used to verify products before accepting a review.
	// Empty disables verification.
	CatalogURL string `env:"CATALOG_SERVICE_URL" envDefault:""`

	// Base URL for serving uploaded review images.
	StorageBaseURL string `env:"REVIEWS_STORAGE_BASE_URL" envDefault:"http://localhost:8086/files"`

	// Rate limiting on submission routes.
	RateLimitRPS   float64 `env:"REVIEWS_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"REVIEWS_RATE_LIMIT_BURST" envDefault:"10"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint      string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load reviews config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be between 0.0 and 1.0, got %g", c.TracingSampleRate)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("invalid rate limit: rps=%g burst=%d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.SubmitWindow < 0 {
		return fmt.Errorf("invalid submit window: %s", c.SubmitWindow)
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
