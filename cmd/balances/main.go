package main

import (
	"context"
	"flag"
	"fmt"

	"auto-topup-go/internal/common"
	"auto-topup-go/internal/config"
	"auto-topup-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalWallets int
	totalVnd     int64
	movements    int
}

func printWalletHeader(wallet models.Wallet, movementCount int) {
	fmt.Printf("\n┌─ User: %s\n", wallet.UserId)
	fmt.Printf("│  Balance: %d VND (updated: %s)\n",
		wallet.BalanceVnd,
		wallet.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("│  Movements: %d\n", movementCount)
	common.PrintBoxSeparator(78)
}

func printMovements(movements []models.WalletTransaction) {
	for i, m := range movements {
		symbol := common.BoxPrefix(i == len(movements)-1)
		fmt.Printf("%s %-10s %+12d VND -> %12d (%s, %s)\n",
			symbol,
			m.Type,
			m.AmountVnd,
			m.BalanceAfterVnd,
			m.Description,
			m.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "Filter by specific user id (optional)")
	historyLimit := flag.Int("limit", 20, "Movements to show per wallet")
	flag.Parse()

	logger.Info("Starting wallet balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer services.Close()

	db := services.DbService

	wallets, err := db.ListWallets(ctx)
	if err != nil {
		logger.Fatal("Failed to list wallets", zap.Error(err))
	}
	if *userFlag != "" {
		filtered := wallets[:0]
		for _, w := range wallets {
			if w.UserId == *userFlag {
				filtered = append(filtered, w)
			}
		}
		wallets = filtered
	}

	common.PrintHeader("WALLET BALANCE REPORT", common.DefaultWidth)

	stats := balanceStats{}
	for _, wallet := range wallets {
		movements, err := db.WalletHistory(ctx, wallet.UserId, *historyLimit)
		if err != nil {
			logger.Error("Failed to load wallet history",
				zap.String("user_id", wallet.UserId),
				zap.Error(err))
			continue
		}

		printWalletHeader(wallet, len(movements))
		printMovements(movements)

		stats.totalWallets++
		stats.totalVnd += wallet.BalanceVnd
		stats.movements += len(movements)
	}

	summary := fmt.Sprintf("SUMMARY: %d wallets holding %d VND (%d movements shown)",
		stats.totalWallets, stats.totalVnd, stats.movements)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("wallets", stats.totalWallets),
		zap.Int64("total_vnd", stats.totalVnd))
}
