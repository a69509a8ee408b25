package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"auto-topup-go/internal/bank"
	"auto-topup-go/internal/models"

	"go.uber.org/zap"
)

func (s *Service) ListBankConfigs(ctx context.Context) ([]models.BankConfig, error) {
	return s.queryBankConfigs(ctx, queryListBankConfigs)
}

func (s *Service) ListEnabledBankConfigs(ctx context.Context) ([]models.BankConfig, error) {
	return s.queryBankConfigs(ctx, queryListEnabledBankConfigs)
}

// SaveBankConfigs validates and replaces the whole config set in one
// transaction, mirroring how the admin surface edits the list as a unit.
// Invalid configs are rejected at save time and never reach a cycle.
func (s *Service) SaveBankConfigs(ctx context.Context, configs []models.BankConfig) error {
	seen := make(map[string]bool, len(configs))
	for i := range configs {
		if err := bank.ValidateConfig(configs[i]); err != nil {
			return fmt.Errorf("bank config %q: %w", configs[i].Id, err)
		}
		if seen[configs[i].Id] {
			return fmt.Errorf("duplicate bank config id %q", configs[i].Id)
		}
		seen[configs[i].Id] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryDeleteBankConfigs); err != nil {
		return fmt.Errorf("failed to clear bank configs: %w", err)
	}

	now := time.Now().UTC()
	for _, cfg := range configs {
		headers, err := json.Marshal(cfg.Headers)
		if err != nil {
			return fmt.Errorf("failed to encode headers for %q: %w", cfg.Id, err)
		}
		var filterField, filterCondition, filterValue string
		if cfg.CreditFilter != nil {
			filterField = cfg.CreditFilter.Field
			filterCondition = cfg.CreditFilter.Condition
			filterValue = cfg.CreditFilter.Value
		}
		createdAt := cfg.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err = tx.ExecContext(ctx, queryInsertBankConfig,
			cfg.Id, cfg.Name, cfg.Enabled, cfg.Endpoint, cfg.Method, string(headers),
			cfg.AuthToken, cfg.ApiKey,
			cfg.FieldMapping.ArrayPath, cfg.FieldMapping.Fields.Amount, cfg.FieldMapping.Fields.Content,
			cfg.FieldMapping.Fields.Reference, cfg.FieldMapping.Fields.Timestamp,
			filterField, filterCondition, filterValue, createdAt, now)
		if err != nil {
			return fmt.Errorf("failed to insert bank config %q: %w", cfg.Id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bank configs: %w", err)
	}

	zap.L().Info("Bank configs saved", zap.Int("count", len(configs)))
	return nil
}

func (s *Service) queryBankConfigs(ctx context.Context, query string) ([]models.BankConfig, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank configs: %w", err)
	}
	defer rows.Close()

	var configs []models.BankConfig
	for rows.Next() {
		var cfg models.BankConfig
		var headers string
		var filterField, filterCondition, filterValue string
		err := rows.Scan(&cfg.Id, &cfg.Name, &cfg.Enabled, &cfg.Endpoint, &cfg.Method, &headers,
			&cfg.AuthToken, &cfg.ApiKey,
			&cfg.FieldMapping.ArrayPath, &cfg.FieldMapping.Fields.Amount, &cfg.FieldMapping.Fields.Content,
			&cfg.FieldMapping.Fields.Reference, &cfg.FieldMapping.Fields.Timestamp,
			&filterField, &filterCondition, &filterValue, &cfg.CreatedAt, &cfg.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank config: %w", err)
		}
		if headers != "" && headers != "{}" {
			if err := json.Unmarshal([]byte(headers), &cfg.Headers); err != nil {
				return nil, fmt.Errorf("failed to decode headers for %q: %w", cfg.Id, err)
			}
		}
		if filterField != "" {
			cfg.CreditFilter = &models.CreditFilter{
				Field:     filterField,
				Condition: filterCondition,
				Value:     filterValue,
			}
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bank configs: %w", err)
	}
	return configs, nil
}
