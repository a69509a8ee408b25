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

// SettleDeposit is the single write path for automatic settlement. Inside
// one transaction it (1) verifies the bank reference has not already
// produced a SETTLED row, (2) flips the deposit PENDING -> APPROVED with a
// conditional update, (3) credits the wallet with the bonus-inclusive total,
// and (4) appends the SETTLED audit row. Any failure rolls the whole unit
// back. Concurrent calls for different deposits are safe; calls for the
// same deposit serialize on the conditional update.
func (s *Service) SettleDeposit(ctx context.Context, params store.SettleDepositParams) (*models.AutoTopupLog, error) {
	if params.TotalVnd <= 0 {
		return nil, fmt.Errorf("settlement total must be positive, got %d", params.TotalVnd)
	}
	if params.BankReference == "" {
		return nil, fmt.Errorf("bank reference cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Dedupe check: a reference settles at most once per bank, no matter how
	// many overlapping fetch windows observe it.
	var existingId string
	err = tx.QueryRowContext(ctx, queryCheckSettledReference, params.BankConfigId, params.BankReference).Scan(&existingId)
	if err == nil {
		return nil, fmt.Errorf("%w: reference %s (log %s)", store.ErrAlreadyProcessed, params.BankReference, existingId)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check settled reference: %w", err)
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryDecideDepositRequest,
		string(models.DepositApproved), "Auto topup via "+params.BankName, now, params.DepositId)
	if err != nil {
		return nil, fmt.Errorf("failed to approve deposit %d: %w", params.DepositId, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		// Lost the race against a manual decision or another settlement.
		return nil, fmt.Errorf("%w: deposit %d", store.ErrDepositNotPending, params.DepositId)
	}

	description := fmt.Sprintf("Bank topup %s (%s)", params.BankReference, params.BankName)
	if err := creditWalletTx(ctx, tx, params.UserId, params.TotalVnd, "DEPOSIT", description, now); err != nil {
		return nil, err
	}

	entry := models.AutoTopupLog{
		Id:              uuid.New().String(),
		BankConfigId:    params.BankConfigId,
		BankName:        params.BankName,
		BankReference:   params.BankReference,
		DepositId:       &params.DepositId,
		UserId:          params.UserId,
		AmountVnd:       params.AmountVnd,
		BonusVnd:        params.BonusVnd,
		Outcome:         models.OutcomeSettled,
		TransactionTime: params.TransactionTime,
		ProcessedAt:     now,
	}
	if _, err := tx.ExecContext(ctx, queryInsertTopupLog,
		entry.Id, entry.BankConfigId, entry.BankName, entry.BankReference, entry.DepositId, entry.UserId,
		entry.AmountVnd, entry.BonusVnd, string(entry.Outcome), entry.Detail, entry.TransactionTime, entry.ProcessedAt); err != nil {
		return nil, fmt.Errorf("failed to insert settled log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	zap.L().Info("Deposit settled",
		zap.Int64("deposit_id", params.DepositId),
		zap.String("user_id", params.UserId),
		zap.String("bank_reference", params.BankReference),
		zap.Int64("amount_vnd", params.AmountVnd),
		zap.Int64("bonus_vnd", params.BonusVnd),
		zap.Int64("total_vnd", params.TotalVnd))

	return &entry, nil
}

func (s *Service) HasSettledReference(ctx context.Context, bankConfigId, reference string) (bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, queryCheckSettledReference, bankConfigId, reference).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check settled reference: %w", err)
	}
	return true, nil
}
