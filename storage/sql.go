package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"
)

// Supported SQL dialects
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

type dialect struct {
	driver string
	schema string
	get    string
	upsert string
	remove string
}

var dialects = map[string]dialect{
	DialectSQLite: {
		driver: "sqlite",
		schema: `CREATE TABLE IF NOT EXISTS preferences (
			pref_key TEXT PRIMARY KEY,
			pref_value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		get: `SELECT pref_value FROM preferences WHERE pref_key = ?`,
		upsert: `INSERT INTO preferences (pref_key, pref_value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (pref_key) DO UPDATE SET pref_value = excluded.pref_value, updated_at = excluded.updated_at`,
		remove: `DELETE FROM preferences WHERE pref_key = ?`,
	},
	DialectPostgres: {
		driver: "pgx",
		schema: `CREATE TABLE IF NOT EXISTS preferences (
			pref_key VARCHAR(191) PRIMARY KEY,
			pref_value TEXT NOT NULL,
			updated_at VARCHAR(40) NOT NULL
		);`,
		get: `SELECT pref_value FROM preferences WHERE pref_key = $1`,
		upsert: `INSERT INTO preferences (pref_key, pref_value, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (pref_key) DO UPDATE SET pref_value = EXCLUDED.pref_value, updated_at = EXCLUDED.updated_at`,
		remove: `DELETE FROM preferences WHERE pref_key = $1`,
	},
	DialectMySQL: {
		driver: "mysql",
		schema: `CREATE TABLE IF NOT EXISTS preferences (
			pref_key VARCHAR(191) PRIMARY KEY,
			pref_value TEXT NOT NULL,
			updated_at VARCHAR(40) NOT NULL
		)`,
		get: `SELECT pref_value FROM preferences WHERE pref_key = ?`,
		upsert: `INSERT INTO preferences (pref_key, pref_value, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE pref_value = VALUES(pref_value), updated_at = VALUES(updated_at)`,
		remove: `DELETE FROM preferences WHERE pref_key = ?`,
	},
}

// SQLStore keeps preferences in a single table of a SQL database
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLStore opens dsn with the driver for name and creates the table if missing
func NewSQLStore(name, dsn string) (*SQLStore, error) {
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("unsupported SQL dialect %q", name)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if name == DialectSQLite {
		// one writer for sqlite
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create preferences table: %w", err)
	}

	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.remove, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Ping checks that the database is reachable
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)
