package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	surreal "github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/mystock/internal/common"
	tcommon "github.com/bobmcallan/mystock/test/common"
)

// testStore starts the shared SurrealDB container and returns a Store on a
// unique database per test.
func testStore(t *testing.T) *Store {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)
	ctx := context.Background()

	db, err := surreal.New(sc.Address())
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": "root",
		"pass": "root",
	}); err != nil {
		t.Fatalf("sign in to SurrealDB: %v", err)
	}

	// SurrealDB rejects "/" in database names
	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbName := fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
	if err := db.Use(ctx, "mystock_test", dbName); err != nil {
		t.Fatalf("select namespace/database: %v", err)
	}

	s, err := NewStore(db, testLogger())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// testLogger returns a silent logger for tests.
func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
