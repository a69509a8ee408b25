package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auto-topup-go/internal/bank"
	"auto-topup-go/internal/common"
	"auto-topup-go/internal/config"
	"auto-topup-go/internal/rateguard"
	"auto-topup-go/internal/reconciler"
	"auto-topup-go/internal/scheduler"
	"auto-topup-go/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting auto-topup reconciler")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	client := bank.NewClient(cfg.Reconciler.FetchTimeout)
	engine := reconciler.NewEngine(services.DbService, client, cfg.Reconciler.FetchWorkers, cfg.Reconciler.ProcessedRetention)

	sched := scheduler.New(cfg.Reconciler.Interval, engine.RunCycle)
	sched.Start(ctx)

	go engine.RunCleanupLoop(ctx, cfg.Reconciler.CleanupInterval)

	guard := rateguard.NewGuard(cfg.Topup.RateLimit, cfg.Topup.RateWindow)
	srv := server.NewServer(services.DbService, guard, sched, engine, cfg)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run(serverCtx)
	}()

	zap.L().Info("Reconciler running",
		zap.Duration("interval", cfg.Reconciler.Interval),
		zap.String("port", cfg.Server.Port))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverStopped := false
	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping...")
	case err := <-serverErr:
		serverStopped = true
		if err != nil {
			zap.L().Error("HTTP server failed", zap.Error(err))
		}
	}

	// Stop the scheduler first so no new cycle starts, then drain the
	// HTTP server.
	done := make(chan struct{})
	go func() {
		sched.Stop()
		serverCancel()
		if !serverStopped {
			<-serverErr
		}
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Reconciler stopped gracefully")
	case <-time.After(30 * time.Second):
		zap.L().Warn("Forced shutdown after timeout")
	}
}
