// Package storage provides the durable key-value capability that preferences
// are kept in. Each backend stores opaque string values under string keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNotFound is returned by Get when the key has never been set or was removed
var ErrNotFound = errors.New("storage: key not found")

// Store is a small durable key-value store
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a backend
type Options struct {
	Driver        string // memory, file, sqlite, postgres, mysql, redis
	DSN           string // file path, SQL DSN
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string // redis only
}

// Open returns the backend named by opts.Driver
func Open(opts Options, logger *slog.Logger) (Store, error) {
	driver := strings.ToLower(opts.Driver)
	if driver == "" {
		driver = "memory"
	}

	var (
		s   Store
		err error
	)
	switch driver {
	case "memory":
		s = NewMemoryStore()
	case "file":
		s, err = NewFileStore(opts.DSN)
	case DialectSQLite, DialectPostgres, DialectMySQL:
		s, err = NewSQLStore(driver, opts.DSN)
	case "redis":
		s, err = NewRedisStore(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", driver, err)
	}

	logger.Info("Preference storage ready", "driver", driver)
	return s, nil
}
