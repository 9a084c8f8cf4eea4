package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"cuantrack/internal/cli"
	apphttp "cuantrack/internal/http"
	"cuantrack/internal/log"
	"cuantrack/internal/services"
	"cuantrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.GracefulShutdown(context.Background(), logger)
	defer stop()

	snapshots := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := snapshots.Cleanup(); err != nil {
			logger.Error("Failed to close snapshot backend", log.FieldError, err)
		}
	}()

	var notifier services.Notifier
	amqpClient := cli.InitNotifier(logger, cfg)
	if amqpClient != nil {
		notifier = amqpClient
		defer amqpClient.Close()
	}

	tracker := services.NewTracker(snapshots.Store, notifier, logger)
	if err := tracker.Open(ctx); err != nil {
		logger.Error("Failed to load saved state", log.FieldError, err)
		os.Exit(1)
	}

	exporter, err := cli.InitExporter(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets export", log.FieldError, err)
		os.Exit(1)
	}
	syncWorker := worker.NewSyncWorker(tracker, tracker.Ledger(), exporter, logger)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:              ":" + cfg.Port,
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		TrustedProxyCIDRs: cfg.TrustedProxies,
	}, tracker, cli.InitAdvisor(ctx, logger, cfg), logger)

	var stopping atomic.Bool
	srv.SetReadiness(func() bool { return !stopping.Load() })

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting cuantrack server",
			log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		stopping.Store(true)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.ConsumeStateChanged(gctx, syncWorker.HandleStateChanged)
		})
	}

	g.Go(func() error {
		return syncWorker.Run(gctx, cfg.SheetsSyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
