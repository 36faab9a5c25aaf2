// Package sqlstore implements the persistent store on sqlx, backed by
// sqlite (default) or postgres.
package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
)

// Driver names accepted by New
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store implements interfaces.Store over a SQL database
type Store struct {
	db     *sqlx.DB
	driver string
	logger *common.Logger
	now    func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used for TTL checks and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New opens the database, applies the schema and returns a ready store.
// For sqlite the DSN is a file path; its directory is created if needed.
func New(logger *common.Logger, driver, dsn string, opts ...Option) (*Store, error) {
	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single writer avoids "database is locked" under concurrent upserts
		db.SetMaxOpenConns(1)
	}

	s := &Store{
		db:     db,
		driver: driver,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("driver", driver).Msg("SQL store initialized")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS holdings (
			id ` + idColumn + `,
			category TEXT NOT NULL,
			name TEXT NOT NULL,
			symbol TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			buy_price DOUBLE PRECISION NOT NULL,
			buy_date TEXT NOT NULL DEFAULT '',
			currency TEXT NOT NULL,
			broker TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_holdings_category ON holdings(category)`,
		`CREATE TABLE IF NOT EXISTS price_cache (
			symbol TEXT PRIMARY KEY,
			current_price DOUBLE PRECISION NOT NULL,
			all_time_high DOUBLE PRECISION NOT NULL DEFAULT 0,
			all_time_low DOUBLE PRECISION NOT NULL DEFAULT 0,
			trend TEXT NOT NULL DEFAULT 'SIDEWAYS',
			currency TEXT NOT NULL DEFAULT '',
			fetched_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS forex_cache (
			pair TEXT PRIMARY KEY,
			rate DOUBLE PRECISION NOT NULL,
			fetched_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ai_usage_log (
			id ` + idColumn + `,
			timestamp TIMESTAMP NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			cost_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
			feature TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_usage_timestamp ON ai_usage_log(timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Backend returns "sqlite" or "postgres"
func (s *Store) Backend() string {
	if s.driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// timestamp returns the current time in UTC, truncated to microseconds so
// values round-trip identically through both drivers.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// q rebinds ? placeholders for the active driver
func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

var _ interfaces.Store = (*Store)(nil)
