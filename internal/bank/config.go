package bank

import (
	"fmt"
	"net/url"

	"auto-topup-go/internal/models"
)

// ValidateConfig checks that a bank config declares everything a fetch
// needs: endpoint, method, the transaction array path and all four field
// extraction paths. Configs failing validation must never reach a cycle;
// they are rejected at save time and skipped (with a FETCH_ERROR audit row)
// if an invalid config is already stored.
func ValidateConfig(cfg models.BankConfig) error {
	if cfg.Id == "" {
		return fmt.Errorf("missing id")
	}
	if cfg.Name == "" {
		return fmt.Errorf("missing name")
	}
	if cfg.Endpoint == "" {
		return fmt.Errorf("missing endpoint")
	}
	if u, err := url.Parse(cfg.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q", cfg.Endpoint)
	}
	if cfg.Method != "GET" && cfg.Method != "POST" {
		return fmt.Errorf("unsupported method %q", cfg.Method)
	}
	if cfg.FieldMapping.ArrayPath == "" {
		return fmt.Errorf("missing field mapping array path")
	}
	fields := cfg.FieldMapping.Fields
	if fields.Amount == "" {
		return fmt.Errorf("missing amount field path")
	}
	if fields.Content == "" {
		return fmt.Errorf("missing content field path")
	}
	if fields.Reference == "" {
		return fmt.Errorf("missing reference field path")
	}
	if fields.Timestamp == "" {
		return fmt.Errorf("missing timestamp field path")
	}
	if f := cfg.CreditFilter; f != nil {
		if f.Field == "" {
			return fmt.Errorf("credit filter missing field")
		}
		switch f.Condition {
		case models.FilterEquals, models.FilterGreater, models.FilterContains:
		default:
			return fmt.Errorf("unsupported credit filter condition %q", f.Condition)
		}
	}
	return nil
}
