// Package storage selects and opens the persistent store backend.
package storage

import (
	"fmt"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/storage/sqlstore"
	"github.com/bobmcallan/mystock/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendSurrealDB = "surrealdb"
)

// NewStore creates a store based on the configuration.
// Supported backends: "sqlite" (default), "postgres", "surrealdb".
func NewStore(logger *common.Logger, config *common.StorageConfig) (interfaces.Store, error) {
	backend := config.Backend
	if backend == "" {
		backend = BackendSQLite
	}

	switch backend {
	case BackendSQLite:
		return sqlstore.New(logger, sqlstore.DriverSQLite, config.DSN)

	case BackendPostgres:
		return sqlstore.New(logger, sqlstore.DriverPostgres, config.DSN)

	case BackendSurrealDB:
		return surrealdb.Connect(logger, config)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sqlite, postgres, surrealdb)", backend)
	}
}
