package main

import (
	"context"
	"flag"

	"auto-topup-go/internal/bonus"
	"auto-topup-go/internal/common"
	"auto-topup-go/internal/config"

	"go.uber.org/zap"
)

// Initializes the database schema and seeds bank configs and bonus tiers.
// Safe to run repeatedly: the schema uses IF NOT EXISTS and seeding only
// fills in what is missing.
func main() {
	banksFile := flag.String("banks", "banks.yaml", "Path to the bank feed seed file")
	skipBanks := flag.Bool("skip-banks", false, "Skip seeding bank configs")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	zap.L().Info("Setting up database", zap.String("path", cfg.Database.Path))
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	db := services.DbService

	if !*skipBanks {
		existing, err := db.ListBankConfigs(ctx)
		if err != nil {
			zap.L().Fatal("Failed to list bank configs", zap.Error(err))
		}
		if len(existing) > 0 {
			zap.L().Info("Bank configs already present, skipping seed",
				zap.Int("count", len(existing)))
		} else {
			banks, err := common.LoadBankConfigs(*banksFile)
			if err != nil {
				zap.L().Fatal("Failed to load bank seed file",
					zap.String("file", *banksFile),
					zap.Error(err))
			}
			if err := db.SaveBankConfigs(ctx, banks); err != nil {
				zap.L().Fatal("Failed to seed bank configs", zap.Error(err))
			}
			zap.L().Info("Seeded bank configs", zap.Int("count", len(banks)))
		}
	}

	tiers, err := db.BonusTiers(ctx)
	if err != nil {
		zap.L().Fatal("Failed to list bonus tiers", zap.Error(err))
	}
	if len(tiers) > 0 {
		zap.L().Info("Bonus tiers already present, skipping seed",
			zap.Int("count", len(tiers)))
	} else {
		defaults := bonus.DefaultTiers()
		if err := db.SaveBonusTiers(ctx, defaults); err != nil {
			zap.L().Fatal("Failed to seed bonus tiers", zap.Error(err))
		}
		zap.L().Info("Seeded default bonus tiers", zap.Int("count", len(defaults)))
	}

	zap.L().Info("Setup complete")
}
