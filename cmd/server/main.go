package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kzstats/internal/config"
	"github.com/kzstats/internal/handler"
	"github.com/kzstats/internal/metrics"
	"github.com/kzstats/internal/postgres"
	"github.com/kzstats/internal/ratelimit"
	"github.com/kzstats/internal/service"
	"github.com/kzstats/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to an optional dotenv file")
	flag.Parse()

	// Environment must be populated before the config expands ${VARS}
	envErr := godotenv.Load(*envPath)

	cfg, cfgErr := config.Load(*configPath)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to load env file", "path", *envPath, "error", envErr)
	}
	if cfgErr != nil {
		logger.Warn("failed to load config file, using defaults", "error", cfgErr)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsManager := metrics.NewManager()

	if cfg.Postgres.Migrate {
		if err := postgres.RunMigrations(cfg.Postgres.ConnectionString(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	repo, err := postgres.NewRepository(&cfg.Postgres, &cfg.Breaker, metricsManager, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer repo.Close()
	logger.Info("connected to PostgreSQL")

	opts := []handler.Option{handler.WithMetrics(metricsManager, metricsManager.Handler())}

	// Without Redis every instance keeps its own in-memory limit
	if cfg.RateLimit.Enabled && cfg.Redis.Enabled {
		client, err := ratelimit.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, rate limits are per instance", "error", err)
		} else {
			defer client.Close()
			counter := ratelimit.NewCounter(client, cfg.Redis.KeyPrefix, cfg.Redis.ReadTimeout, logger)
			opts = append(opts, handler.WithLimitCounter(counter))
			logger.Info("connected to Redis", "addr", cfg.Redis.Addr)
		}
	}

	statsService := service.NewStatsService(repo, cfg, logger)
	httpHandler := handler.NewHandler(statsService, cfg, logger, opts...)

	statsWorker := worker.NewStatsWorker(repo, metricsManager, &cfg.Stats, logger)
	if cfg.Stats.Enabled {
		if err := statsWorker.Start(ctx); err != nil {
			return fmt.Errorf("start stats worker: %w", err)
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := statsWorker.Stop(); err != nil {
		logger.Error("failed to stop stats worker", "error", err)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
