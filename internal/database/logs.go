package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"auto-topup-go/internal/models"

	"github.com/google/uuid"
)

// RecordTopupLog appends one audit row. Rows are immutable once written.
func (s *Service) RecordTopupLog(ctx context.Context, entry models.AutoTopupLog) error {
	if entry.Id == "" {
		entry.Id = uuid.New().String()
	}
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, queryInsertTopupLog,
		entry.Id, entry.BankConfigId, entry.BankName, entry.BankReference, entry.DepositId, entry.UserId,
		entry.AmountVnd, entry.BonusVnd, string(entry.Outcome), entry.Detail, entry.TransactionTime, entry.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to insert topup log: %w", err)
	}
	return nil
}

func (s *Service) TopupLogs(ctx context.Context, limit int) ([]models.AutoTopupLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, queryListTopupLogs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query topup logs: %w", err)
	}
	defer rows.Close()

	var entries []models.AutoTopupLog
	for rows.Next() {
		var entry models.AutoTopupLog
		var outcome string
		var depositId sql.NullInt64
		var transactionTime sql.NullTime
		err := rows.Scan(&entry.Id, &entry.BankConfigId, &entry.BankName, &entry.BankReference, &depositId, &entry.UserId,
			&entry.AmountVnd, &entry.BonusVnd, &outcome, &entry.Detail, &transactionTime, &entry.ProcessedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topup log: %w", err)
		}
		entry.Outcome = models.Outcome(outcome)
		if depositId.Valid {
			id := depositId.Int64
			entry.DepositId = &id
		}
		if transactionTime.Valid {
			entry.TransactionTime = transactionTime.Time
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topup logs: %w", err)
	}
	return entries, nil
}
