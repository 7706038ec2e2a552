package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret    string        `env:"JWT_SECRET, required"`
	JWTTTL       time.Duration `env:"JWT_TTL, default=1h"`
	SecretboxKey string        `env:"SECRETBOX_KEY"`

	AuditWorkers int `env:"AUDIT_WORKERS, default=4"`

	Postgres PostgresConfig
	Redis    RedisConfig
}

type PostgresConfig struct {
	DSN     string        `env:"POSTGRES_DSN, default=postgres://localhost:5432/identity?sslmode=disable"`
	Timeout time.Duration `env:"POSTGRES_TIMEOUT, default=5s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR, default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,   default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT, default=3s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(logger *slog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error("Failed to load configuration", "error", err)
		panic(err)
	}
	return &cfg
}
