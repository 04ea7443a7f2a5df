package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort        = "3001"
	DefaultHost        = "0.0.0.0"
	DefaultDriver      = "sqlite"
	DefaultDBPath      = "./database.sqlite"
	DefaultBodyLimitMB = 100
	DefaultBatchSize   = 500
	DefaultWorkerCount = 4
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Ingest   IngestConfig
	Env      string
}

type ServerConfig struct {
	Host        string
	Port        string
	Mode        string
	BodyLimitMB int64
}

type DatabaseConfig struct {
	Driver          string
	Path            string
	URL             string
	InsecureTLS     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

type IngestConfig struct {
	BatchSize   int
	WorkerCount int
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// IsProduction reports whether the process runs with APP_ENV (or NODE_ENV) set to production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads the env file (if present) and builds the configuration from the environment.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return FromEnv(), nil
}

// FromEnv builds the configuration from the current environment only
func FromEnv() *Config {
	env := getEnv("APP_ENV", getEnv("NODE_ENV", "development"))

	cfg := &Config{
		Env: env,
		Server: ServerConfig{
			Host:        getEnv("HOST", DefaultHost),
			Port:        getEnv("PORT", DefaultPort),
			Mode:        getEnv("GIN_MODE", "release"),
			BodyLimitMB: int64(getEnvInt("BODY_LIMIT_MB", DefaultBodyLimitMB)),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", DefaultDriver)),
			Path:            getEnv("DB_PATH", DefaultDBPath),
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
			File:   getEnv("LOG_FILE", ""),
		},
		Ingest: IngestConfig{
			BatchSize:   getEnvInt("BATCH_SIZE", DefaultBatchSize),
			WorkerCount: getEnvInt("WORKER_COUNT", DefaultWorkerCount),
		},
	}
	cfg.Database.InsecureTLS = cfg.IsProduction()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getEnvInt returns environment variable as int or default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
