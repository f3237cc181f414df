package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by Open for a driver other than sqlite or postgres.
var ErrUnknownDriver = errors.New("invoker: unknown journal driver")

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 4
	MaxOpenConns int

	// MaxIdleConns is the maximum number of connections in the idle pool.
	// Default: 2
	MaxIdleConns int

	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	// Default: 5 minutes
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig returns pool settings for a single sequential writer
// plus the occasional pruning query.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// PoolOption configures connection pool settings.
type PoolOption interface {
	applyPool(*PoolConfig)
}

type poolOptionFunc func(*PoolConfig)

func (f poolOptionFunc) applyPool(c *PoolConfig) { f(c) }

// MaxOpenConns sets the maximum number of open connections.
func MaxOpenConns(n int) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.MaxOpenConns = n
	})
}

// MaxIdleConns sets the maximum number of idle connections.
func MaxIdleConns(n int) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.MaxIdleConns = n
	})
}

// ConnMaxLifetime sets the maximum connection lifetime.
func ConnMaxLifetime(d time.Duration) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.ConnMaxLifetime = d
	})
}

// Open connects to the journal database and migrates it.
//
// Example:
//
//	j, err := journal.Open("sqlite", "invocations.db")
//	j, err := journal.Open("postgres", "host=localhost user=invoker dbname=invoker")
func Open(driver, dsn string, opts ...PoolOption) (*GormJournal, error) {
	var dialector gorm.Dialector
	config := DefaultPoolConfig()

	switch strings.ToLower(driver) {
	case DriverSQLite, "sqlite3":
		dialector = sqlite.Open(dsn)
		// Every connection to ":memory:" is its own database.
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	case DriverPostgres, "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	for _, opt := range opts {
		opt.applyPool(&config)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("invoker: open %s journal: %w", driver, err)
	}

	if err := configurePool(db, config); err != nil {
		return nil, err
	}
	return NewGormJournal(db), nil
}

func configurePool(db *gorm.DB, config PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	return nil
}
