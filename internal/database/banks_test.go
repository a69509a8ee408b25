package database

import (
	"context"
	"testing"

	"auto-topup-go/internal/models"
)

func testBankConfig(id string, enabled bool) models.BankConfig {
	return models.BankConfig{
		Id:       id,
		Name:     "Bank " + id,
		Enabled:  enabled,
		Endpoint: "https://api.example.com/" + id,
		Method:   "GET",
		Headers:  map[string]string{"X-Client": "topup"},
		FieldMapping: models.FieldMapping{
			ArrayPath: "data.transactions",
			Fields: models.FieldPaths{
				Amount:    "amount",
				Content:   "description",
				Reference: "refNo",
				Timestamp: "date",
			},
		},
		CreditFilter: &models.CreditFilter{
			Field:     "type",
			Condition: models.FilterEquals,
			Value:     "CREDIT",
		},
	}
}

func TestSaveBankConfigs_RoundTrip(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.SaveBankConfigs(ctx, []models.BankConfig{
		testBankConfig("bank1", true),
		testBankConfig("bank2", false),
	}); err != nil {
		t.Fatalf("SaveBankConfigs failed: %v", err)
	}

	configs, err := service.ListBankConfigs(ctx)
	if err != nil {
		t.Fatalf("ListBankConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}

	cfg := configs[0]
	if cfg.Headers["X-Client"] != "topup" {
		t.Errorf("Expected headers round trip, got %v", cfg.Headers)
	}
	if cfg.CreditFilter == nil || cfg.CreditFilter.Value != "CREDIT" {
		t.Errorf("Expected credit filter round trip, got %v", cfg.CreditFilter)
	}
	if cfg.FieldMapping.Fields.Reference != "refNo" {
		t.Errorf("Expected field mapping round trip, got %v", cfg.FieldMapping)
	}
}

func TestListEnabledBankConfigs(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.SaveBankConfigs(ctx, []models.BankConfig{
		testBankConfig("bank1", true),
		testBankConfig("bank2", false),
	}); err != nil {
		t.Fatalf("SaveBankConfigs failed: %v", err)
	}

	enabled, err := service.ListEnabledBankConfigs(ctx)
	if err != nil {
		t.Fatalf("ListEnabledBankConfigs failed: %v", err)
	}
	if len(enabled) != 1 || enabled[0].Id != "bank1" {
		t.Errorf("Expected only bank1, got %v", enabled)
	}
}

func TestSaveBankConfigs_RejectsInvalid(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	bad := testBankConfig("bank1", true)
	bad.FieldMapping.Fields.Amount = ""

	if err := service.SaveBankConfigs(context.Background(), []models.BankConfig{bad}); err == nil {
		t.Error("Expected validation error")
	}
}

func TestSaveBankConfigs_RejectsDuplicateIds(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	if err := service.SaveBankConfigs(context.Background(), []models.BankConfig{
		testBankConfig("bank1", true),
		testBankConfig("bank1", false),
	}); err == nil {
		t.Error("Expected duplicate id error")
	}
}

func TestSaveBankConfigs_ReplacesExisting(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.SaveBankConfigs(ctx, []models.BankConfig{testBankConfig("bank1", true)}); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := service.SaveBankConfigs(ctx, []models.BankConfig{testBankConfig("bank2", true)}); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	configs, err := service.ListBankConfigs(ctx)
	if err != nil {
		t.Fatalf("ListBankConfigs failed: %v", err)
	}
	if len(configs) != 1 || configs[0].Id != "bank2" {
		t.Errorf("Expected the set to be replaced, got %v", configs)
	}
}

func TestSaveBonusTiers_RoundTrip(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	tiers := []models.BonusTier{
		{MinAmountVnd: 100_000, MaxAmountVnd: 499_999, BonusPercent: 5},
		{MinAmountVnd: 500_000, MaxAmountVnd: 999_999, BonusPercent: 10},
	}

	if err := service.SaveBonusTiers(ctx, tiers); err != nil {
		t.Fatalf("SaveBonusTiers failed: %v", err)
	}

	got, err := service.BonusTiers(ctx)
	if err != nil {
		t.Fatalf("BonusTiers failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 tiers, got %d", len(got))
	}
	if got[0].Id == "" {
		t.Error("Expected generated tier ids")
	}
	if got[0].MinAmountVnd != 100_000 || got[1].BonusPercent != 10 {
		t.Errorf("Tier round trip mismatch: %v", got)
	}
}

func TestSaveBonusTiers_RejectsOverlap(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	tiers := []models.BonusTier{
		{MinAmountVnd: 100_000, MaxAmountVnd: 600_000, BonusPercent: 5},
		{MinAmountVnd: 500_000, MaxAmountVnd: 999_999, BonusPercent: 10},
	}

	if err := service.SaveBonusTiers(context.Background(), tiers); err == nil {
		t.Error("Expected overlap error")
	}
}
