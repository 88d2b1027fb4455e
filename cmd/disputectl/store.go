package main

import (
	"context"
	"fmt"
	"time"

	"github.com/anupakum/MCP-Payment-idea/config"
	"github.com/anupakum/MCP-Payment-idea/internal/app"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/kvstore/dynamo"
	"github.com/anupakum/MCP-Payment-idea/internal/seed"
	"github.com/anupakum/MCP-Payment-idea/pkg/logger"

	"github.com/spf13/cobra"
)

func loadConfig() (config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return config.Config{}, err
	}
	logger.Setup(logger.Options{Level: cfg.LogLevel, Console: true, Service: "disputectl"})
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres store migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.PgURL == "" {
				return fmt.Errorf("PG_URL is required")
			}
			return app.ApplyMigrations(cmd.Context(), cfg.PgURL, app.MIGRATION_FS)
		},
	}
}

func initTablesCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "init-tables",
		Short: "Create the DynamoDB tables and their indexes",
		Long: `Create the card transactions and cases tables with their global
secondary indexes. Tables that already exist are left untouched.

Examples:
  disputectl init-tables
  DYNAMODB_ENDPOINT=http://localhost:8000 disputectl init-tables --wait 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := dynamo.NewClient(cmd.Context(), cfg.AWSRegion, cfg.DynamoDBEndpoint)
			if err != nil {
				return err
			}
			return dynamo.CreateTables(cmd.Context(), client, kv.DefaultSchema(), app.TableNames(cfg), wait)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 2*time.Minute, "how long to wait for tables to become active (0 skips waiting)")

	return cmd
}

func seedCmd() *cobra.Command {
	var viaStore bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo customers, cards and transactions",
		Long: `Load demo customers, cards and transactions.

By default records are written straight into the DynamoDB card
transactions table. With --via-store they go through the configured
STORE_BACKEND instead, which is how the Postgres store is seeded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			writer, closeFn, err := seedWriter(ctx, cfg, viaStore)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := seed.Load(ctx, writer, seed.Sample(time.Now()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d records\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&viaStore, "via-store", false, "write through STORE_BACKEND instead of DynamoDB directly")

	return cmd
}

func seedWriter(ctx context.Context, cfg config.Config, viaStore bool) (seed.RecordWriter, func(), error) {
	if viaStore {
		a, err := app.Build(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return a.Transactions, a.Close, nil
	}

	client, err := dynamo.NewClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
	if err != nil {
		return nil, nil, err
	}
	return seed.NewDynamoWriter(client, cfg.CardTransactionsTable), func() {}, nil
}
