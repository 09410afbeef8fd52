package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/altair/internal/catalog"
	"github.com/starford/altair/internal/catalogd"
)

// Serve runs the catalog cone-search service until ctx is cancelled or a
// shutdown signal arrives.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	logger.Info("configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("catalog_backend", cfg.Catalog.Backend),
		slog.String("log_level", cfg.App.LogLevel.String()))

	backend, closeBackend, err := app.openBackend()
	if err != nil {
		return err
	}
	defer closeBackend()

	handler := catalogd.NewHandler(backend, readinessProbe(backend))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", catalogd.NewRouter(handler))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting catalog service", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("catalog service error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("catalog service stopped")
	return nil
}

// readinessProbe checks the backing store when it can be pinged; stateless
// backends are always ready.
func readinessProbe(backend catalog.Backend) func(context.Context) error {
	type pinger interface {
		Ping(context.Context) error
	}
	if p, ok := backend.(pinger); ok {
		return p.Ping
	}
	return func(context.Context) error { return nil }
}
