package app

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anupakum/MCP-Payment-idea/config"
	"github.com/anupakum/MCP-Payment-idea/internal/activity"
	"github.com/anupakum/MCP-Payment-idea/internal/capability"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/card"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
	"github.com/anupakum/MCP-Payment-idea/internal/external/kafka"
	"github.com/anupakum/MCP-Payment-idea/internal/external/opensearch"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/cases"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/kvstore/dynamo"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/kvstore/memory"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/kvstore/pg"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/transactions"
	"github.com/anupakum/MCP-Payment-idea/pkg/health"
	"github.com/anupakum/MCP-Payment-idea/pkg/postgres"
	"github.com/anupakum/MCP-Payment-idea/pkg/retry"
)

//go:embed migrations/*.sql
var MIGRATION_FS embed.FS

// App is the wired dispute service shared by the HTTP server, the MCP
// server and the CLI.
type App struct {
	Config       config.Config
	QueryBuilder *kv.QueryBuilder
	Transactions card.Repo
	Service      *dispute.Service
	Verifier     *card.Verifier
	Activity     *activity.Collector
	Registry     *capability.Registry
	Health       *health.Registry

	closers []func()
}

// Build opens the configured store and sinks and registers the standard
// capabilities. Close releases whatever Build opened.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{
		Config:   cfg,
		Activity: activity.NewCollector(cfg.ActivityBufferSize),
	}

	store, checkers, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.QueryBuilder = kv.NewQueryBuilder(store, kv.WithRetry(retry.Config{
		MaxAttempts: cfg.StoreRetryAttempts,
		BaseDelay:   cfg.StoreRetryBaseDelay,
		MaxDelay:    cfg.StoreRetryMaxDelay,
	}))
	a.Transactions = transactions.NewRepository(a.QueryBuilder)

	sinks, sinkCheckers, err := a.openSinks(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	checkers = append(checkers, sinkCheckers...)

	a.Service = dispute.NewService(
		cases.NewRepository(a.QueryBuilder),
		dispute.WithEventSink(sinks),
		dispute.WithGuardLease(cfg.CaseGuardLease),
	)
	a.Verifier = card.NewVerifier(a.Transactions)

	a.Registry = capability.NewRegistry(a.Activity)
	if err := a.Registry.Register(capability.Standard(a.Service, a.Verifier, a.QueryBuilder)...); err != nil {
		a.Close()
		return nil, fmt.Errorf("register capabilities: %w", err)
	}

	a.Health = health.NewRegistry(checkers...)
	return a, nil
}

// TableNames maps logical tables to the configured physical names.
func TableNames(cfg config.Config) map[kv.TableName]string {
	return map[kv.TableName]string{
		kv.CardTransactions: cfg.CardTransactionsTable,
		kv.Cases:            cfg.CasesTable,
	}
}

func (a *App) openStore(ctx context.Context) (kv.Store, []health.Checker, error) {
	cfg := a.Config

	switch cfg.StoreBackend {
	case config.BackendMemory:
		slog.Warn("Using in-memory store, data is lost on restart")
		return memory.New(), nil, nil

	case config.BackendPostgres:
		if cfg.PgURL == "" {
			return nil, nil, errors.New("PG_URL is required for the postgres store")
		}
		if err := ApplyMigrations(ctx, cfg.PgURL, MIGRATION_FS); err != nil {
			return nil, nil, fmt.Errorf("migrate postgres store: %w", err)
		}
		pool, err := postgres.New(cfg.PgURL,
			postgres.MaxPoolSize(cfg.PgPoolMax),
			postgres.ConnAttempts(cfg.PgConnAttempts),
			postgres.ConnTimeout(cfg.PgConnTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.onClose(pool.Close)
		return pg.New(pool, TableNames(cfg)), []health.Checker{health.NewPostgresChecker(pool.Pool)}, nil

	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, nil, err
		}
		checker := health.NewDynamoDBChecker(client, cfg.CardTransactionsTable, cfg.CasesTable)
		return dynamo.New(client, TableNames(cfg)), []health.Checker{checker}, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

// openSinks always includes the activity collector. Kafka and OpenSearch
// are added when configured.
func (a *App) openSinks(ctx context.Context) (dispute.MultiSink, []health.Checker, error) {
	cfg := a.Config
	sinks := dispute.MultiSink{a.Activity}
	var checkers []health.Checker

	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaCaseEventsTopic)
		a.onClose(func() { _ = pub.Close() })
		sinks = append(sinks, kafka.NewCaseEventSink(pub))
		checkers = append(checkers, health.Optional(health.NewKafkaChecker(cfg.KafkaBrokers, cfg.KafkaCaseEventsTopic)))
	}

	if len(cfg.OpensearchUrls) > 0 {
		client, err := opensearch.NewClient(cfg.OpensearchUrls)
		if err != nil {
			return nil, nil, err
		}
		index, err := opensearch.NewCaseIndex(ctx, client, cfg.OpensearchIndexCases)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, index)
		checkers = append(checkers, health.Optional(health.NewOpenSearchChecker(client)))
	}

	return sinks, checkers, nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close runs the registered closers in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
