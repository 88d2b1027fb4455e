package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpctl "github.com/anupakum/MCP-Payment-idea/internal/controller/http"
	"github.com/anupakum/MCP-Payment-idea/internal/controller/http/handlers"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Handler builds the HTTP API on top of the registry.
func (a *App) Handler() http.Handler {
	engine := httpctl.NewGinEngine()
	router := httpctl.NewRouter(
		handlers.NewCapabilityHandler(a.Registry),
		handlers.NewDisputeHandler(a.Registry),
		handlers.NewActivityHandler(a.Activity),
		a.Health,
	)
	router.SetUp(engine)
	return engine
}

// Run serves HTTP and, when Kafka is configured, consumes acquirer
// outcomes. It returns after ctx is cancelled and the server has drained.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server", "port", a.Config.Port, "store", a.Config.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(a.Config.KafkaBrokers) > 0 {
		g.Go(func() error {
			return a.runAcquirerOutcomes(ctx)
		})
	}

	return g.Wait()
}
