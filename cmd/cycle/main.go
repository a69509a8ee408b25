package main

import (
	"context"
	"encoding/json"
	"fmt"

	"auto-topup-go/internal/bank"
	"auto-topup-go/internal/common"
	"auto-topup-go/internal/config"
	"auto-topup-go/internal/reconciler"

	"go.uber.org/zap"
)

// Runs exactly one reconciliation cycle and prints the summary. Useful for
// cron-style deployments and for poking a live database by hand.
func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	client := bank.NewClient(cfg.Reconciler.FetchTimeout)
	engine := reconciler.NewEngine(services.DbService, client, cfg.Reconciler.FetchWorkers, cfg.Reconciler.ProcessedRetention)

	summary := engine.RunCycle(ctx)

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		zap.L().Fatal("Failed to marshal cycle summary", zap.Error(err))
	}
	fmt.Println(string(out))
}
