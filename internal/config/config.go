package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the process configuration, read once at startup from the environment.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/scoreboard.db"`
	PGHost     string `env:"PG_HOST" envDefault:"localhost"`
	PGPort     string `env:"PG_PORT" envDefault:"5432"`
	PGUser     string `env:"PG_USER" envDefault:"postgres"`
	PGDB       string `env:"PG_DB" envDefault:"scoreboard"`
	PGPassword string `env:"PG_PASSWORD"`

	CacheBackend      string        `env:"CACHE_BACKEND" envDefault:"memory"`
	RedisHost         string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	StandingsCacheTTL time.Duration `env:"STANDINGS_CACHE_TTL" envDefault:"30s"`

	ProofDir        string        `env:"PROOF_DIR" envDefault:"data/uploads"`
	ProofSigningKey string        `env:"PROOF_SIGNING_KEY" envDefault:"dev-proof-signing-key"`
	ProofURLTTL     time.Duration `env:"PROOF_URL_TTL" envDefault:"15m"`

	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"20"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8081"`
	MaxBodyBytes   int64    `env:"MAX_BODY_BYTES" envDefault:"8388608"`

	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	RoundSweepInterval time.Duration `env:"ROUND_SWEEP_INTERVAL" envDefault:"1m"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the process configuration.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.DBDriver = strings.ToLower(c.DBDriver)
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	c.CacheBackend = strings.ToLower(c.CacheBackend)
	if c.CacheBackend != CacheMemory && c.CacheBackend != CacheRedis {
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.AppEnv == "production" && c.ProofSigningKey == "dev-proof-signing-key" {
		return fmt.Errorf("PROOF_SIGNING_KEY must be set in production")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.RoundSweepInterval <= 0 {
		return fmt.Errorf("ROUND_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// PostgresDSN builds the connection string shared by the GORM and sqlx pools.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDB)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
