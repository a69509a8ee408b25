package reconciler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auto-topup-go/internal/bank"
	"auto-topup-go/internal/database"
	"auto-topup-go/internal/models"
	"auto-topup-go/internal/store"
)

func setupTestStore(t *testing.T) (*database.Service, func()) {
	t.Helper()

	service, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	return service, service.Close
}

func feedHandler(body *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(*body))
	}
}

func feedBankConfig(id, endpoint string) models.BankConfig {
	return models.BankConfig{
		Id:       id,
		Name:     "Bank " + id,
		Enabled:  true,
		Endpoint: endpoint,
		Method:   http.MethodGet,
		FieldMapping: models.FieldMapping{
			ArrayPath: "transactions",
			Fields: models.FieldPaths{
				Amount:    "amount",
				Content:   "memo",
				Reference: "ref",
				Timestamp: "time",
			},
		},
	}
}

func seedTiers(t *testing.T, svc *database.Service) {
	t.Helper()
	err := svc.SaveBonusTiers(context.Background(), []models.BonusTier{
		{MinAmountVnd: 100_000, MaxAmountVnd: 999_999, BonusPercent: 10},
	})
	if err != nil {
		t.Fatalf("Failed to seed tiers: %v", err)
	}
}

func newTestEngine(svc *database.Service) *Engine {
	return NewEngine(svc, bank.NewClient(5*time.Second), 4, time.Hour)
}

func outcomeCounts(t *testing.T, svc *database.Service) map[models.Outcome]int {
	t.Helper()
	logs, err := svc.TopupLogs(context.Background(), 100)
	if err != nil {
		t.Fatalf("TopupLogs failed: %v", err)
	}
	counts := make(map[models.Outcome]int)
	for _, l := range logs {
		counts[l.Outcome]++
	}
	return counts
}

func TestRunCycle_SettlesMatchedDeposit(t *testing.T) {
	svc, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedTiers(t, svc)
	deposit, err := svc.CreateDepositRequest(ctx, store.CreateDepositParams{
		UserId: "alice", AmountVnd: 500_000, TransferContent: "NAPAAAA11112222",
	})
	if err != nil {
		t.Fatalf("Failed to create deposit: %v", err)
	}

	body := `{"transactions": [
		{"amount": 500000, "memo": "NGUYEN VAN A ck NAPAAAA11112222", "ref": "FT001", "time": "2025-06-01T10:00:00Z"}
	]}`
	ts := httptest.NewServer(feedHandler(&body))
	defer ts.Close()

	if err := svc.SaveBankConfigs(ctx, []models.BankConfig{feedBankConfig("bank1", ts.URL)}); err != nil {
		t.Fatalf("Failed to save bank config: %v", err)
	}

	engine := newTestEngine(svc)
	summary := engine.RunCycle(ctx)

	if summary.Settled != 1 {
		t.Fatalf("Expected 1 settlement, got %+v", summary)
	}

	// 500k face amount plus 10% tier bonus.
	balance, err := svc.GetWalletBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetWalletBalance failed: %v", err)
	}
	if balance != 550_000 {
		t.Errorf("Expected balance 550000, got %d", balance)
	}

	got, err := svc.GetDepositRequest(ctx, deposit.Id)
	if err != nil {
		t.Fatalf("GetDepositRequest failed: %v", err)
	}
	if got.Status != models.DepositApproved {
		t.Errorf("Expected APPROVED, got %s", got.Status)
	}

	if counts := outcomeCounts(t, svc); counts[models.OutcomeSettled] != 1 {
		t.Errorf("Expected exactly one SETTLED row, got %v", counts)
	}
}

func TestRunCycle_SecondCycleIsIdempotent(t *testing.T) {
	svc, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedTiers(t, svc)
	if _, err := svc.CreateDepositRequest(ctx, store.CreateDepositParams{
		UserId: "alice", AmountVnd: 500_000, TransferContent: "NAPAAAA11112222",
	}); err != nil {
		t.Fatalf("Failed to create deposit: %v", err)
	}

	body := `{"transactions": [
		{"amount": 500000, "memo": "NAPAAAA11112222", "ref": "FT001", "time": "2025-06-01T10:00:00Z"}
	]}`
	ts := httptest.NewServer(feedHandler(&body))
	defer ts.Close()

	if err := svc.SaveBankConfigs(ctx, []models.BankConfig{feedBankConfig("bank1", ts.URL)}); err != nil {
		t.Fatalf("Failed to save bank config: %v", err)
	}

	engine := newTestEngine(svc)
	engine.RunCycle(ctx)
	second := engine.RunCycle(ctx)

	if second.Settled != 0 {
		t.Errorf("Second cycle must not settle again, got %+v", second)
	}

	balance, err := svc.GetWalletBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetWalletBalance failed: %v", err)
	}
	if balance != 550_000 {
		t.Errorf("Balance must be credited exactly once, got %d", balance)
	}

	// A fresh engine has a cold cache and must still refuse via the
	// database dedupe record.
	cold := newTestEngine(svc)
	cold.RunCycle(ctx)

	balance, _ = svc.GetWalletBalance(ctx, "alice")
	if balance != 550_000 {
		t.Errorf("Cold-cache cycle must not double credit, got %d", balance)
	}
	if counts := outcomeCounts(t, svc); counts[models.OutcomeAlreadyProcessed] == 0 {
		t.Error("Expected an ALREADY_PROCESSED audit row from the cold-cache cycle")
	}
}

func TestRunCycle_BankFailureIsIsolated(t *testing.T) {
	svc, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedTiers(t, svc)
	if _, err := svc.CreateDepositRequest(ctx, store.CreateDepositParams{
		UserId: "alice", AmountVnd: 500_000, TransferContent: "NAPAAAA11112222",
	}); err != nil {
		t.Fatalf("Failed to create deposit: %v", err)
	}

	good := `{"transactions": [
		{"amount": 500000, "memo": "NAPAAAA11112222", "ref": "FT001", "time": "2025-06-01T10:00:00Z"}
	]}`
	goodServer := httptest.NewServer(feedHandler(&good))
	defer goodServer.Close()

	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer badServer.Close()

	if err := svc.SaveBankConfigs(ctx, []models.BankConfig{
		feedBankConfig("bad", badServer.URL),
		feedBankConfig("good", goodServer.URL),
	}); err != nil {
		t.Fatalf("Failed to save bank configs: %v", err)
	}

	engine := newTestEngine(svc)
	summary := engine.RunCycle(ctx)

	if summary.BanksChecked != 2 {
		t.Errorf("Expected 2 banks checked, got %d", summary.BanksChecked)
	}
	if summary.Settled != 1 {
		t.Errorf("The healthy bank must still settle, got %+v", summary)
	}

	counts := outcomeCounts(t, svc)
	if counts[models.OutcomeFetchError] != 1 {
		t.Errorf("Expected one FETCH_ERROR row, got %v", counts)
	}
	if counts[models.OutcomeSettled] != 1 {
		t.Errorf("Expected one SETTLED row, got %v", counts)
	}
}

func TestRunCycle_RecordsNoMatchAndParseError(t *testing.T) {
	svc, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedTiers(t, svc)

	body := `{"transactions": [
		{"amount": 300000, "memo": "chuyen tien ca nhan", "ref": "FT001", "time": "2025-06-01T10:00:00Z"},
		{"amount": "garbage", "memo": "broken row", "ref": "FT002"}
	]}`
	ts := httptest.NewServer(feedHandler(&body))
	defer ts.Close()

	if err := svc.SaveBankConfigs(ctx, []models.BankConfig{feedBankConfig("bank1", ts.URL)}); err != nil {
		t.Fatalf("Failed to save bank config: %v", err)
	}

	engine := newTestEngine(svc)
	engine.RunCycle(ctx)

	counts := outcomeCounts(t, svc)
	if counts[models.OutcomeNoMatch] != 1 {
		t.Errorf("Expected one NO_MATCH row, got %v", counts)
	}
	if counts[models.OutcomeParseError] != 1 {
		t.Errorf("Expected one PARSE_ERROR row, got %v", counts)
	}
}

func TestRunCycle_AmountMismatchIsConflict(t *testing.T) {
	svc, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedTiers(t, svc)
	if _, err := svc.CreateDepositRequest(ctx, store.CreateDepositParams{
		UserId: "alice", AmountVnd: 500_000, TransferContent: "NAPAAAA11112222",
	}); err != nil {
		t.Fatalf("Failed to create deposit: %v", err)
	}

	body := `{"transactions": [
		{"amount": 450000, "memo": "NAPAAAA11112222", "ref": "FT001", "time": "2025-06-01T10:00:00Z"}
	]}`
	ts := httptest.NewServer(feedHandler(&body))
	defer ts.Close()

	if err := svc.SaveBankConfigs(ctx, []models.BankConfig{feedBankConfig("bank1", ts.URL)}); err != nil {
		t.Fatalf("Failed to save bank config: %v", err)
	}

	engine := newTestEngine(svc)
	summary := engine.RunCycle(ctx)

	if summary.Settled != 0 {
		t.Errorf("Mismatched amount must not settle, got %+v", summary)
	}

	balance, err := svc.GetWalletBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetWalletBalance failed: %v", err)
	}
	if balance != 0 {
		t.Errorf("Conflict must not credit, got %d", balance)
	}

	if counts := outcomeCounts(t, svc); counts[models.OutcomeConflict] != 1 {
		t.Errorf("Expected one CONFLICT row, got %v", counts)
	}
}

func TestRunCycle_NoBanksConfigured(t *testing.T) {
	svc, cleanup := setupTestStore(t)
	defer cleanup()

	engine := newTestEngine(svc)
	summary := engine.RunCycle(context.Background())

	if summary.BanksChecked != 0 || summary.Settled != 0 {
		t.Errorf("Empty configuration must be a no-op, got %+v", summary)
	}
	if engine.LastSummary() == nil {
		t.Error("Expected LastSummary to be recorded even for empty cycles")
	}
}
