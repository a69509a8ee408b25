package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"auto-topup-go/internal/models"
	"auto-topup-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) CreateDepositRequest(ctx context.Context, params store.CreateDepositParams) (*models.DepositRequest, error) {
	if params.UserId == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	if params.AmountVnd <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", params.AmountVnd)
	}
	if params.TransferContent == "" {
		return nil, fmt.Errorf("transfer content cannot be empty")
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, queryInsertDepositRequest,
		params.UserId, params.AmountVnd, params.TransferContent, params.QrCode, params.Note, now)
	if err != nil {
		// The partial unique index on pending transfer_content surfaces here.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateToken, params.TransferContent)
		}
		return nil, fmt.Errorf("failed to insert deposit request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit request id: %w", err)
	}

	zap.L().Info("Deposit request created",
		zap.Int64("deposit_id", id),
		zap.String("user_id", params.UserId),
		zap.Int64("amount_vnd", params.AmountVnd),
		zap.String("transfer_content", params.TransferContent))

	return s.GetDepositRequest(ctx, id)
}

func (s *Service) GetDepositRequest(ctx context.Context, id int64) (*models.DepositRequest, error) {
	row := s.db.QueryRowContext(ctx, queryGetDepositRequest, id)
	deposit, err := scanDepositRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: deposit request %d", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit request %d: %w", id, err)
	}
	return deposit, nil
}

func (s *Service) PendingDepositRequests(ctx context.Context) ([]models.DepositRequest, error) {
	rows, err := s.db.QueryContext(ctx, queryPendingDepositRequests)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending deposit requests: %w", err)
	}
	defer rows.Close()

	var deposits []models.DepositRequest
	for rows.Next() {
		deposit, err := scanDepositRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit request: %w", err)
		}
		deposits = append(deposits, *deposit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposit requests: %w", err)
	}
	return deposits, nil
}

// DecideDepositRequest applies a manual admin decision inside one
// transaction. Approvals credit the wallet with creditVnd (amount plus any
// bonus, computed by the caller) and append a journal row. The conditional
// update races safely against auto-settlement: one side wins, the other
// observes ErrDepositNotPending.
func (s *Service) DecideDepositRequest(ctx context.Context, id int64, status models.DepositStatus, adminNote string, creditVnd int64) (*models.DepositRequest, error) {
	if status != models.DepositApproved && status != models.DepositRejected {
		return nil, fmt.Errorf("invalid decision status %q", status)
	}
	if status == models.DepositApproved && creditVnd <= 0 {
		return nil, fmt.Errorf("approval credit must be positive, got %d", creditVnd)
	}

	deposit, err := s.GetDepositRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryDecideDepositRequest, string(status), adminNote, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update deposit request %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: deposit request %d", store.ErrDepositNotPending, id)
	}

	if status == models.DepositApproved {
		description := fmt.Sprintf("Manual deposit approval #%d", id)
		if err := creditWalletTx(ctx, tx, deposit.UserId, creditVnd, "DEPOSIT", description, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit decision: %w", err)
	}

	zap.L().Info("Deposit request decided",
		zap.Int64("deposit_id", id),
		zap.String("status", string(status)),
		zap.Int64("credit_vnd", creditVnd))

	return s.GetDepositRequest(ctx, id)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDepositRequest(row rowScanner) (*models.DepositRequest, error) {
	var deposit models.DepositRequest
	var status string
	var decidedAt sql.NullTime
	err := row.Scan(&deposit.Id, &deposit.UserId, &deposit.AmountVnd, &deposit.TransferContent,
		&deposit.QrCode, &deposit.Note, &status, &deposit.AdminNote, &decidedAt, &deposit.CreatedAt)
	if err != nil {
		return nil, err
	}
	deposit.Status = models.DepositStatus(status)
	if decidedAt.Valid {
		t := decidedAt.Time
		deposit.DecidedAt = &t
	}
	return &deposit, nil
}
