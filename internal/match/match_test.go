package match

import (
	"testing"

	"auto-topup-go/internal/models"
)

func pendingDeposits() []models.DepositRequest {
	return []models.DepositRequest{
		{Id: 1, UserId: "alice", AmountVnd: 500_000, TransferContent: "NAPA1B2C3D4E5F6"},
		{Id: 2, UserId: "bob", AmountVnd: 200_000, TransferContent: "NAPF9E8D7C6B5A4"},
	}
}

func TestMatch_TokenInsideNoisyMemo(t *testing.T) {
	tx := models.BankTransaction{
		Reference: "FT001",
		AmountVnd: 500_000,
		Memo:      "NGUYEN VAN A chuyen tien NAPA1B2C3D4E5F6 qua app",
	}

	result := Match(tx, pendingDeposits())
	if result.Outcome != Matched {
		t.Fatalf("Expected Matched, got %v (%s)", result.Outcome, result.Reason)
	}
	if result.Deposit.Id != 1 {
		t.Errorf("Expected deposit 1, got %d", result.Deposit.Id)
	}
}

func TestMatch_CaseAndWhitespaceInsensitive(t *testing.T) {
	tx := models.BankTransaction{
		Reference: "FT002",
		AmountVnd: 500_000,
		Memo:      "ck nap a1 b2 c3 d4 e5 f6 thanh toan",
	}

	result := Match(tx, pendingDeposits())
	if result.Outcome != Matched {
		t.Fatalf("Expected Matched despite spacing and case, got %v", result.Outcome)
	}
	if result.Deposit.Id != 1 {
		t.Errorf("Expected deposit 1, got %d", result.Deposit.Id)
	}
}

func TestMatch_NoToken(t *testing.T) {
	tx := models.BankTransaction{
		Reference: "FT003",
		AmountVnd: 500_000,
		Memo:      "chuyen khoan ca nhan",
	}

	result := Match(tx, pendingDeposits())
	if result.Outcome != NoMatch {
		t.Errorf("Expected NoMatch, got %v", result.Outcome)
	}
}

func TestMatch_EmptyMemo(t *testing.T) {
	tx := models.BankTransaction{Reference: "FT004", AmountVnd: 500_000}

	result := Match(tx, pendingDeposits())
	if result.Outcome != NoMatch {
		t.Errorf("Expected NoMatch for empty memo, got %v", result.Outcome)
	}
}

func TestMatch_AmountMismatchIsConflict(t *testing.T) {
	tx := models.BankTransaction{
		Reference: "FT005",
		AmountVnd: 450_000,
		Memo:      "NAPA1B2C3D4E5F6",
	}

	result := Match(tx, pendingDeposits())
	if result.Outcome != Conflict {
		t.Fatalf("Expected Conflict on amount mismatch, got %v", result.Outcome)
	}
	if result.Deposit == nil || result.Deposit.Id != 1 {
		t.Error("Expected conflict to reference the mismatched deposit")
	}
	if result.Reason == "" {
		t.Error("Expected a reason describing the mismatch")
	}
}

func TestMatch_MultipleTokensIsConflict(t *testing.T) {
	tx := models.BankTransaction{
		Reference: "FT006",
		AmountVnd: 500_000,
		Memo:      "NAPA1B2C3D4E5F6 NAPF9E8D7C6B5A4",
	}

	result := Match(tx, pendingDeposits())
	if result.Outcome != Conflict {
		t.Fatalf("Expected Conflict with two tokens, got %v", result.Outcome)
	}
	if result.Deposit != nil {
		t.Error("Ambiguous match must not pick a deposit")
	}
}
