package database

import (
	"context"
	"errors"
	"testing"

	"auto-topup-go/internal/models"
	"auto-topup-go/internal/store"
)

func TestCreateDepositRequest(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	deposit := createTestDeposit(t, service, "alice", 500_000, "NAPAAAA11112222")

	if deposit.Id == 0 {
		t.Error("Expected a generated id")
	}
	if deposit.Status != models.DepositPending {
		t.Errorf("Expected PENDING status, got %s", deposit.Status)
	}
	if deposit.DecidedAt != nil {
		t.Error("New deposit must not have a decision time")
	}

	got, err := service.GetDepositRequest(context.Background(), deposit.Id)
	if err != nil {
		t.Fatalf("GetDepositRequest failed: %v", err)
	}
	if got.TransferContent != "NAPAAAA11112222" {
		t.Errorf("Expected token round trip, got %s", got.TransferContent)
	}
}

func TestCreateDepositRequest_DuplicatePendingToken(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	createTestDeposit(t, service, "alice", 500_000, "NAPAAAA11112222")

	_, err := service.CreateDepositRequest(context.Background(), store.CreateDepositParams{
		UserId:          "bob",
		AmountVnd:       200_000,
		TransferContent: "NAPAAAA11112222",
	})
	if !errors.Is(err, store.ErrDuplicateToken) {
		t.Errorf("Expected ErrDuplicateToken, got %v", err)
	}
}

func TestCreateDepositRequest_TokenReusableAfterTerminal(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	deposit := createTestDeposit(t, service, "alice", 500_000, "NAPAAAA11112222")

	if _, err := service.DecideDepositRequest(ctx, deposit.Id, models.DepositRejected, "test", 0); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	// The uniqueness constraint only covers pending rows.
	if _, err := service.CreateDepositRequest(ctx, store.CreateDepositParams{
		UserId:          "bob",
		AmountVnd:       200_000,
		TransferContent: "NAPAAAA11112222",
	}); err != nil {
		t.Errorf("Token should be reusable once the old request is terminal: %v", err)
	}
}

func TestPendingDepositRequests(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestDeposit(t, service, "alice", 500_000, "NAPAAAA11112222")
	d2 := createTestDeposit(t, service, "bob", 200_000, "NAPBBBB33334444")

	if _, err := service.DecideDepositRequest(ctx, d2.Id, models.DepositRejected, "spam", 0); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	pending, err := service.PendingDepositRequests(ctx)
	if err != nil {
		t.Fatalf("PendingDepositRequests failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending deposit, got %d", len(pending))
	}
	if pending[0].UserId != "alice" {
		t.Errorf("Expected alice's deposit, got %s", pending[0].UserId)
	}
}

func TestDecideDepositRequest_ApproveCreditsWallet(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	deposit := createTestDeposit(t, service, "alice", 500_000, "NAPAAAA11112222")

	decided, err := service.DecideDepositRequest(ctx, deposit.Id, models.DepositApproved, "verified by hand", 500_000)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if decided.Status != models.DepositApproved {
		t.Errorf("Expected APPROVED, got %s", decided.Status)
	}
	if decided.DecidedAt == nil {
		t.Error("Expected a decision time")
	}
	if decided.AdminNote != "verified by hand" {
		t.Errorf("Expected admin note round trip, got %q", decided.AdminNote)
	}

	balance, err := service.GetWalletBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetWalletBalance failed: %v", err)
	}
	if balance != 500_000 {
		t.Errorf("Expected balance 500000, got %d", balance)
	}

	history, err := service.WalletHistory(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("WalletHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Type != "DEPOSIT" {
		t.Errorf("Expected one DEPOSIT movement, got %+v", history)
	}
}

func TestDecideDepositRequest_RejectDoesNotCredit(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	deposit := createTestDeposit(t, service, "alice", 500_000, "NAPAAAA11112222")

	if _, err := service.DecideDepositRequest(ctx, deposit.Id, models.DepositRejected, "no transfer seen", 0); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	balance, err := service.GetWalletBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("GetWalletBalance failed: %v", err)
	}
	if balance != 0 {
		t.Errorf("Rejection must not credit the wallet, balance %d", balance)
	}
}

func TestDecideDepositRequest_AlreadyDecided(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	deposit := createTestDeposit(t, service, "alice", 500_000, "NAPAAAA11112222")

	if _, err := service.DecideDepositRequest(ctx, deposit.Id, models.DepositRejected, "", 0); err != nil {
		t.Fatalf("First decision failed: %v", err)
	}

	_, err := service.DecideDepositRequest(ctx, deposit.Id, models.DepositApproved, "", 500_000)
	if !errors.Is(err, store.ErrDepositNotPending) {
		t.Errorf("Expected ErrDepositNotPending, got %v", err)
	}
}

func TestGetDepositRequest_NotFound(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := service.GetDepositRequest(context.Background(), 999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
