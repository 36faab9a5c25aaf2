package common

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	postgresOnce      sync.Once
	postgresContainer *PostgresContainer
	postgresError     error
)

// PostgresContainer wraps a testcontainers Postgres instance.
type PostgresContainer struct {
	container testcontainers.Container
	host      string
	port      string
}

// StartPostgres starts a shared Postgres container for the test run.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	RequireDocker(t)

	postgresOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "mystock",
				"POSTGRES_PASSWORD": "mystock",
				"POSTGRES_DB":       "mystock",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(60 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			postgresError = fmt.Errorf("start Postgres container: %w", err)
			return
		}

		host, port, err := endpoint(ctx, container, "5432/tcp")
		if err != nil {
			container.Terminate(ctx)
			postgresError = fmt.Errorf("Postgres endpoint: %w", err)
			return
		}

		postgresContainer = &PostgresContainer{container: container, host: host, port: port}
	})

	if postgresError != nil {
		t.Fatalf("Postgres container failed: %v", postgresError)
	}

	return postgresContainer
}

// DSN returns a lib/pq connection string for the container.
func (c *PostgresContainer) DSN() string {
	return fmt.Sprintf("postgres://mystock:mystock@%s:%s/mystock?sslmode=disable", c.host, c.port)
}
