package database

import (
	"context"
	"database/sql"
	"testing"

	"auto-topup-go/internal/models"
	"auto-topup-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) (*Service, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// One connection only: each new connection would get its own empty
	// in-memory database.
	db.SetMaxOpenConns(1)

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func createTestDeposit(t *testing.T, service *Service, userId string, amountVnd int64, token string) *models.DepositRequest {
	t.Helper()

	deposit, err := service.CreateDepositRequest(context.Background(), store.CreateDepositParams{
		UserId:          userId,
		AmountVnd:       amountVnd,
		TransferContent: token,
		QrCode:          "https://img.vietqr.io/image/test.jpg",
	})
	if err != nil {
		t.Fatalf("Failed to create test deposit: %v", err)
	}
	return deposit
}
