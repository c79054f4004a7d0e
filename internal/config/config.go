package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidProvider     = errors.New("provider must be http or postgres")
	ErrMissingDepartmentID = errors.New("DEPARTMENT_ID is required")
	ErrMissingAPIBase      = errors.New("API_BASE is required")
)

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// DSN returns a lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Empty Addr disables caching.
	TTL time.Duration
}

type Config struct {
	Port string

	// View configuration: both are required.
	DepartmentID string
	APIBase      string

	// Provider selects where transports are fetched from: "http" or "postgres".
	Provider string

	Database DatabaseConfig
	Redis    RedisConfig

	Refresh struct {
		Interval    time.Duration
		Departments []string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.DepartmentID = os.Getenv("DEPARTMENT_ID")
	cfg.APIBase = os.Getenv("API_BASE")
	cfg.Provider = getEnv("PROVIDER", "http")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "ambulance")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.TTL = time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second

	cfg.Refresh.Interval = time.Duration(getEnvInt("REFRESH_INTERVAL_SECONDS", 60)) * time.Second
	for _, d := range strings.Split(os.Getenv("REFRESH_DEPARTMENTS"), ",") {
		if d = strings.TrimSpace(d); d != "" {
			cfg.Refresh.Departments = append(cfg.Refresh.Departments, d)
		}
	}
	if len(cfg.Refresh.Departments) == 0 && cfg.DepartmentID != "" {
		cfg.Refresh.Departments = []string{cfg.DepartmentID}
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Provider != "http" && cfg.Provider != "postgres" {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidProvider, cfg.Provider)
	}

	return cfg, nil
}

// ValidateView checks the settings the list view cannot start without. The
// refresher only needs REFRESH_DEPARTMENTS and skips this.
func (c *Config) ValidateView() error {
	if c.DepartmentID == "" {
		return ErrMissingDepartmentID
	}
	if c.APIBase == "" {
		return ErrMissingAPIBase
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
