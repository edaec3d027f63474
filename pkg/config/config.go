// Package config reads the service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DBConfig describes the PostgreSQL connection
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Pool     PoolConfig
	LogLevel gormlogger.LogLevel
}

// PoolConfig bounds the database/sql connection pool
type PoolConfig struct {
	MaxIdle     int
	MaxOpen     int
	MaxLifetime time.Duration
}

// DSN returns the connection string. Sessions run in UTC so month ranges
// computed by the service line up with stored timestamps.
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.Name, c.User, c.Password, c.SSLMode)
}

type ServerConfig struct {
	Port            string
	Env             string
	ShutdownTimeout time.Duration
}

func (c *ServerConfig) IsProduction() bool { return c.Env == "production" }

type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// TTL is the lifetime of an issued access token.
func (c *JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

type LogConfig struct {
	Level string
}

type MetricsConfig struct {
	Prefix string
}

type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

// Load reads .env when present, then the environment. Malformed values are
// reported together instead of silently replaced by defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	var e env
	cfg := &Config{
		ServiceName: "sales-service",
		DB: DBConfig{
			Host:     e.str("DB_HOST", "localhost"),
			Port:     e.str("DB_PORT", "5432"),
			User:     e.str("DB_USER", "postgres"),
			Password: e.str("DB_PASSWORD", "password"),
			Name:     e.str("DB_NAME", "sales_manager"),
			SSLMode:  e.str("DB_SSL_MODE", "disable"),
			Pool: PoolConfig{
				MaxIdle:     e.int("DB_MAX_IDLE_CONNS", 10),
				MaxOpen:     e.int("DB_MAX_OPEN_CONNS", 100),
				MaxLifetime: e.duration("DB_CONN_MAX_LIFETIME", time.Hour),
			},
			LogLevel: e.gormLevel("DB_LOG_LEVEL", gormlogger.Warn),
		},
		Server: ServerConfig{
			Port:            e.str("SERVER_PORT", "8000"),
			Env:             e.str("APP_ENV", "development"),
			ShutdownTimeout: e.duration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			SigningKey:      e.str("JWT_SIGNING_KEY", "salesservicesecretkey"),
			ExpirationHours: e.int("JWT_EXPIRATION_HOURS", 1),
		},
		Log:     LogConfig{Level: e.str("LOG_LEVEL", "info")},
		Metrics: MetricsConfig{Prefix: e.str("METRICS_PREFIX", "sales")},
	}

	if cfg.JWT.ExpirationHours <= 0 {
		e.fail("JWT_EXPIRATION_HOURS must be positive, got %d", cfg.JWT.ExpirationHours)
	}
	if cfg.JWT.SigningKey == "" {
		e.fail("JWT_SIGNING_KEY must not be empty")
	}

	if err := errors.Join(e.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LogConfig returns the configuration as zap fields, without secrets
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.Name),
		zap.Int("db_max_open_conns", c.DB.Pool.MaxOpen),
		zap.Int("jwt_expiration_hours", c.JWT.ExpirationHours),
		zap.String("log_level", c.Log.Level),
	}
}

// env looks up variables and collects parse failures
type env struct {
	errs []error
}

func (e *env) fail(format string, args ...interface{}) {
	e.errs = append(e.errs, fmt.Errorf(format, args...))
}

func (e *env) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail("%s: %q is not an integer", key, v)
		return def
	}
	return n
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail("%s: %q is not a duration", key, v)
		return def
	}
	return d
}

func (e *env) gormLevel(key string, def gormlogger.LogLevel) gormlogger.LogLevel {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	levels := map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"error":  gormlogger.Error,
		"warn":   gormlogger.Warn,
		"info":   gormlogger.Info,
	}
	level, found := levels[strings.ToLower(v)]
	if !found {
		e.fail("%s: unknown level %q", key, v)
		return def
	}
	return level
}
