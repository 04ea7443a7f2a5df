package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"github.com/viktsys/b3history/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var (
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrMissingDSN        = errors.New("DATABASE_URL is required for networked drivers")
)

// Open connects to the configured backend and tunes the connection pool.
// The schema is not touched; call EnsureSchema before serving.
func Open(cfg config.DatabaseConfig) (*GormStore, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// Single writer; also keeps every statement on the same file handle
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("driver", cfg.Driver).Msg("Database connected")
	return NewGormStore(db, cfg.Driver), nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case DriverPostgres:
		if cfg.URL == "" {
			return nil, ErrMissingDSN
		}
		return postgres.Open(postgresDSN(cfg.URL, cfg.InsecureTLS)), nil
	case DriverMySQL:
		if cfg.URL == "" {
			return nil, ErrMissingDSN
		}
		return mysql.Open(mysqlDSN(cfg.URL, cfg.InsecureTLS)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

// postgresDSN enables TLS without certificate validation when insecure is set,
// unless the connection string already chooses an sslmode.
func postgresDSN(dsn string, insecure bool) string {
	if !insecure || strings.Contains(dsn, "sslmode=") {
		return dsn
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
		return u.String()
	}

	return strings.TrimSpace(dsn) + " sslmode=require"
}

func mysqlDSN(dsn string, insecure bool) string {
	dsn = strings.TrimPrefix(dsn, "mysql://")
	if !strings.Contains(dsn, "parseTime=") {
		dsn = appendParam(dsn, "parseTime=True")
	}
	if insecure && !strings.Contains(dsn, "tls=") {
		dsn = appendParam(dsn, "tls=skip-verify")
	}
	return dsn
}

func appendParam(dsn, param string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}
