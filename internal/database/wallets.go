package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auto-topup-go/internal/models"
	"auto-topup-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) GetWalletBalance(ctx context.Context, userId string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, queryGetWalletBalance, userId).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		// No wallet row yet means a zero balance, not an error.
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get wallet balance for %s: %w", userId, err)
	}
	return balance, nil
}

func (s *Service) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx, queryListWallets)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.UserId, &w.BalanceVnd, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallets: %w", err)
	}
	return wallets, nil
}

// AdjustWallet applies a signed admin adjustment and returns the new
// balance. Negative adjustments that would take the balance below zero
// return ErrInsufficientFunds without mutating anything.
func (s *Service) AdjustWallet(ctx context.Context, userId string, deltaVnd int64, description string) (int64, error) {
	if userId == "" {
		return 0, fmt.Errorf("user id cannot be empty")
	}
	if deltaVnd == 0 {
		return 0, fmt.Errorf("adjustment delta cannot be zero")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if err := creditWalletTx(ctx, tx, userId, deltaVnd, "ADJUSTMENT", description, now); err != nil {
		return 0, err
	}

	var balance int64
	if err := tx.QueryRowContext(ctx, queryGetWalletBalance, userId).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to read adjusted balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit adjustment: %w", err)
	}

	zap.L().Info("Wallet adjusted",
		zap.String("user_id", userId),
		zap.Int64("delta_vnd", deltaVnd),
		zap.Int64("balance_vnd", balance))
	return balance, nil
}

func (s *Service) WalletHistory(ctx context.Context, userId string, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, queryWalletHistory, userId, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet history: %w", err)
	}
	defer rows.Close()

	var history []models.WalletTransaction
	for rows.Next() {
		var wt models.WalletTransaction
		if err := rows.Scan(&wt.Id, &wt.UserId, &wt.Type, &wt.AmountVnd, &wt.BalanceAfterVnd, &wt.Description, &wt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		history = append(history, wt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet history: %w", err)
	}
	return history, nil
}

// creditWalletTx applies a signed balance movement and its journal row
// inside an open transaction. It is the single write path for wallet
// balances; settlement, decisions and adjustments all funnel through it.
func creditWalletTx(ctx context.Context, tx *sql.Tx, userId string, deltaVnd int64, movementType, description string, now time.Time) error {
	if deltaVnd >= 0 {
		if _, err := tx.ExecContext(ctx, queryUpsertWalletCredit, userId, deltaVnd, now); err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}
	} else {
		result, err := tx.ExecContext(ctx, queryDebitWallet, deltaVnd, now, userId, deltaVnd)
		if err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: user %s delta %d", store.ErrInsufficientFunds, userId, deltaVnd)
		}
	}

	var balance int64
	if err := tx.QueryRowContext(ctx, queryGetWalletBalance, userId).Scan(&balance); err != nil {
		return fmt.Errorf("failed to read balance after movement: %w", err)
	}

	if _, err := tx.ExecContext(ctx, queryInsertWalletTransaction,
		uuid.New().String(), userId, movementType, deltaVnd, balance, description, now); err != nil {
		return fmt.Errorf("failed to insert wallet transaction: %w", err)
	}
	return nil
}
