// Command corrigo runs the article-correction service: a JSON API with a
// push-event streaming path in front of the upstream correction engine.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/corrigo/corrigo/internal/adapters/duckdb"
	"github.com/corrigo/corrigo/internal/adapters/llm"
	"github.com/corrigo/corrigo/internal/config"
	"github.com/corrigo/corrigo/internal/core/services"
	"github.com/corrigo/corrigo/internal/files"
	"github.com/corrigo/corrigo/pkg/api"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// A .env file is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	repo, err := duckdb.NewRepository(cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	engine, err := llm.NewEngine(logger, cfg.Engine)
	if err != nil {
		return err
	}

	bus := services.NewEventBus(logger)
	store := services.NewJobStore(logger, cfg.Jobs.Retention, cfg.Jobs.SweepInterval)
	orch := services.NewOrchestrator(logger, store, engine, bus, repo)
	parser := files.NewParser(logger)

	server, err := api.NewServer(logger, engine, orch, bus, store, repo, repo, parser)
	if err != nil {
		return err
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", "Cache-Control"},
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           corsMiddleware.Handler(server.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return store.Run(ctx)
	})

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
