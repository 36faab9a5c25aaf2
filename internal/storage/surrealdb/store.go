// Package surrealdb implements the persistent store on SurrealDB
package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
)

const (
	tableHolding = "holding"
	tablePrice   = "price_cache"
	tableForex   = "forex_cache"
	tableUsage   = "ai_usage"
	tableCounter = "counter"
)

// Store implements interfaces.Store using SurrealDB.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
	now    func() time.Time
}

// Connect opens a SurrealDB connection from the storage config and returns a Store.
func Connect(logger *common.Logger, config *common.StorageConfig) (*Store, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	s, err := NewStore(db, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB store initialized")

	return s, nil
}

// NewStore wraps an already selected database and defines the tables
func NewStore(db *surrealdb.DB, logger *common.Logger) (*Store, error) {
	ctx := context.Background()

	// SurrealDB v3 errors on querying non-existent tables
	for _, table := range []string{tableHolding, tablePrice, tableForex, tableUsage, tableCounter} {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Backend returns "surrealdb"
func (s *Store) Backend() string {
	return "surrealdb"
}

// Close closes the connection
func (s *Store) Close() error {
	s.db.Close(context.Background())
	return nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// upsert runs an UPSERT statement, retrying transient failures
func (s *Store) upsert(ctx context.Context, sql string, vars map[string]any, what string) error {
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[any](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save %s after retries: %w", what, err)
		}
	}
	return nil
}

var _ interfaces.Store = (*Store)(nil)
