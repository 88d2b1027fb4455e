//go:build integration

package testinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/app"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/kvstore/pg"
	"github.com/anupakum/MCP-Payment-idea/pkg/postgres"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgImage = "postgres:17-alpine"
	pgPort  = nat.Port("5432/tcp")
	pgDB    = "disputes_test"
)

// PostgresContainer runs the key-value schema on a throwaway Postgres.
type PostgresContainer struct {
	Container testcontainers.Container
	Pool      *postgres.Postgres
	DSN       string
}

func NewPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: pgImage,
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "secret",
				"POSTGRES_DB":       pgDB,
			},
			ExposedPorts: []string{string(pgPort)},
			WaitingFor: wait.ForSQL(pgPort, "postgres", pgDSN).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", pgImage, err)
	}

	c := &PostgresContainer{Container: container}
	if err := c.init(ctx); err != nil {
		c.Cleanup(ctx)
		return nil, err
	}
	return c, nil
}

func (c *PostgresContainer) init(ctx context.Context) error {
	host, err := c.Container.Host(ctx)
	if err != nil {
		return fmt.Errorf("container host: %w", err)
	}
	port, err := c.Container.MappedPort(ctx, pgPort)
	if err != nil {
		return fmt.Errorf("mapped port: %w", err)
	}
	c.DSN = pgDSN(host, port)

	if err := app.ApplyMigrations(ctx, c.DSN, app.MIGRATION_FS); err != nil {
		return err
	}

	c.Pool, err = postgres.New(c.DSN, postgres.MaxPoolSize(10))
	if err != nil {
		return fmt.Errorf("postgres pool: %w", err)
	}
	return nil
}

func pgDSN(host string, port nat.Port) string {
	return fmt.Sprintf("postgres://postgres:secret@%s:%s/%s?sslmode=disable", host, port.Port(), pgDB)
}

// Store truncates both tables and returns a fresh key-value store over them.
func (c *PostgresContainer) Store(ctx context.Context) (kv.Store, error) {
	if _, err := c.Pool.Pool.Exec(ctx, "TRUNCATE TABLE card_transactions, cases"); err != nil {
		return nil, errors.Join(errors.New("truncate key-value tables"), err)
	}
	return pg.New(c.Pool, nil), nil
}

func (c *PostgresContainer) Cleanup(ctx context.Context) {
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Container != nil {
		_ = c.Container.Terminate(ctx)
	}
}
