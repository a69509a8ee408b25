package database

import (
	"context"
	"fmt"

	"auto-topup-go/internal/bonus"
	"auto-topup-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) BonusTiers(ctx context.Context) ([]models.BonusTier, error) {
	rows, err := s.db.QueryContext(ctx, queryListBonusTiers)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonus tiers: %w", err)
	}
	defer rows.Close()

	var tiers []models.BonusTier
	for rows.Next() {
		var tier models.BonusTier
		if err := rows.Scan(&tier.Id, &tier.MinAmountVnd, &tier.MaxAmountVnd, &tier.BonusPercent, &tier.Position); err != nil {
			return nil, fmt.Errorf("failed to scan bonus tier: %w", err)
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bonus tiers: %w", err)
	}
	return tiers, nil
}

// SaveBonusTiers validates and replaces the tier set as a unit. Overlapping
// ranges are rejected here so the calculator never has to re-validate.
func (s *Service) SaveBonusTiers(ctx context.Context, tiers []models.BonusTier) error {
	if err := bonus.ValidateTiers(tiers); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryDeleteBonusTiers); err != nil {
		return fmt.Errorf("failed to clear bonus tiers: %w", err)
	}

	for i, tier := range tiers {
		id := tier.Id
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx, queryInsertBonusTier, id, tier.MinAmountVnd, tier.MaxAmountVnd, tier.BonusPercent, i); err != nil {
			return fmt.Errorf("failed to insert bonus tier: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bonus tiers: %w", err)
	}

	zap.L().Info("Bonus tiers saved", zap.Int("count", len(tiers)))
	return nil
}
