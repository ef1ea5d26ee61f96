package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/wayfarelab/wayfare/pkg/config"
	"github.com/wayfarelab/wayfare/pkg/database"
)

// Default secrets usable only in development. Load refuses to start any
// other environment with these values.
const (
	devAccessSecret  = "dev-access-secret-change-me"
	devRefreshSecret = "dev-refresh-secret-change-me"

	minSecretLen = 32
)

// Config holds all service configuration, loaded from environment variables.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"wayfare"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"wayfare_secret"`
	DBName     string `env:"DB_NAME" envDefault:"wayfare"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns int32  `env:"DB_MIN_CONNS" envDefault:"5"`

	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	JWTSecret        string `env:"JWT_SECRET" envDefault:"dev-access-secret-change-me"`
	JWTRefreshSecret string `env:"JWT_REFRESH_SECRET" envDefault:"dev-refresh-secret-change-me"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	AuthRateRPS   int `env:"AUTH_RATE_RPS" envDefault:"5"`
	AuthRateBurst int `env:"AUTH_RATE_BURST" envDefault:"10"`

	// BlobStoreURL points at the remote media storage service. Empty means
	// the in-memory store is used (development and tests).
	BlobStoreURL    string        `env:"BLOB_STORE_URL" envDefault:""`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	UnreadCacheTTL  time.Duration `env:"UNREAD_CACHE_TTL" envDefault:"30s"`
	SessionReapSpec string        `env:"SESSION_REAP_SPEC" envDefault:"@hourly"`

	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := pkgconfig.Load(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate refuses unsafe JWT secrets outside development. There is no
// silent fallback: a missing or weak secret is a startup error.
func (c *Config) validate() error {
	if c.Environment == "development" {
		return nil
	}

	if c.JWTSecret == devAccessSecret || c.JWTRefreshSecret == devRefreshSecret {
		return fmt.Errorf("config: default JWT secrets are not allowed in %s", c.Environment)
	}
	if len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("config: JWT_SECRET must be at least %d characters", minSecretLen)
	}
	if len(c.JWTRefreshSecret) < minSecretLen {
		return fmt.Errorf("config: JWT_REFRESH_SECRET must be at least %d characters", minSecretLen)
	}
	if c.JWTSecret == c.JWTRefreshSecret {
		return fmt.Errorf("config: JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	return nil
}

// Postgres returns the database pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.DBHost
	pg.Port = c.DBPort
	pg.User = c.DBUser
	pg.Password = c.DBPassword
	pg.DBName = c.DBName
	pg.SSLMode = c.DBSSLMode
	pg.MaxConns = c.DBMaxConns
	pg.MinConns = c.DBMinConns
	return pg
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// IsProduction reports whether the service runs in production mode. Cookie
// security attributes depend on this.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
