package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/emotiflow/config"
	"github.com/spacesedan/emotiflow/internal/analysis"
	"github.com/spacesedan/emotiflow/internal/clients"
	"github.com/spacesedan/emotiflow/internal/clients/kafka_client"
	"github.com/spacesedan/emotiflow/internal/db"
	"github.com/spacesedan/emotiflow/internal/history"
	"github.com/spacesedan/emotiflow/internal/logging"
	"github.com/spacesedan/emotiflow/internal/monitoring"
	"github.com/spacesedan/emotiflow/internal/sentiment"
	"github.com/spacesedan/emotiflow/internal/server"
)

func main() {
	env := config.AppEnvironment()
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("[Main] Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	opts := analysis.Options{
		StripMarkdown: cfg.StripMarkdown,
		MaxTextLength: cfg.MaxTextLength,
	}
	var serverOpts []server.Option

	if cfg.Valkey.Enabled() {
		cache, err := clients.NewValkeyClient(cfg.Valkey)
		if err != nil {
			return err
		}
		defer cache.Close()

		cacheHealth := monitoring.NewMonitor("valkey", cache.Ping, monitoring.HEALTHCHECK_INTERVAL)
		go cacheHealth.Run(ctx)

		opts.Cache = cache
		opts.CacheHealthy = cacheHealth.Healthy
		opts.CacheTimeout = cfg.Valkey.OpTimeout
		serverOpts = append(serverOpts, server.WithReadinessCheck("valkey", cache.Ping))
	}

	var writer *history.Writer
	if cfg.History.Enabled() {
		dynamo, err := clients.NewDynamoDBClient(ctx, cfg.History)
		if err != nil {
			return err
		}

		writer = history.NewWriter(
			db.NewAnalysisStore(dynamo, cfg.History.Table),
			cfg.History.BatchSize,
			cfg.History.FlushInterval,
		)
		opts.Recorders = append(opts.Recorders, writer)
	}

	if cfg.Events.Enabled() {
		producer, err := kafka_client.NewProducer(cfg.Events)
		if err != nil {
			return err
		}
		defer producer.Close()

		opts.Recorders = append(opts.Recorders, producer)
	}

	svc := analysis.NewService(sentiment.NewVaderScorer(), opts)

	srv, err := server.NewServer(cfg, svc, serverOpts...)
	if err != nil {
		return err
	}

	// The writer starts only once nothing else can fail during startup, and
	// every return below goes through the final flush.
	stopHistory := func() {}
	if writer != nil {
		stopHistory = writer.Start()
	}

	slog.Info("[Main] Starting emotion analyzer",
		slog.String("env", cfg.AppEnv),
		slog.Bool("cache", cfg.Valkey.Enabled()),
		slog.Bool("history", cfg.History.Enabled()),
		slog.Bool("events", cfg.Events.Enabled()),
		slog.Bool("strip_markdown", cfg.StripMarkdown))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	var runErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("[Main] server failed: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("[Main] Graceful shutdown failed", slog.String("error", err.Error()))
		}
	}

	// In-flight requests are done, so the history buffer is final.
	stopHistory()

	if runErr != nil {
		return runErr
	}
	slog.Info("[Main] Shutdown complete")
	return nil
}
