package store

import (
	"context"
	"errors"
	"time"

	"auto-topup-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrAlreadyProcessed  = errors.New("bank reference already settled")
	ErrDepositNotPending = errors.New("deposit is not pending")
	ErrDuplicateToken    = errors.New("transfer content already in use")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
)

// CreateDepositParams contains the parameters for creating a deposit request.
type CreateDepositParams struct {
	UserId          string
	AmountVnd       int64
	TransferContent string
	QrCode          string
	Note            string
}

// SettleDepositParams contains everything the atomic settlement needs: the
// matched deposit, the originating bank transaction, and the credited
// amounts computed by the bonus calculator.
type SettleDepositParams struct {
	DepositId       int64
	UserId          string
	BankConfigId    string
	BankName        string
	BankReference   string
	AmountVnd       int64
	BonusVnd        int64
	TotalVnd        int64
	TransactionTime time.Time
}

// Store defines the persistence contract for the reconciliation engine and
// the HTTP surface.
type Store interface {
	// --- Deposit requests ---
	CreateDepositRequest(ctx context.Context, params CreateDepositParams) (*models.DepositRequest, error)
	GetDepositRequest(ctx context.Context, id int64) (*models.DepositRequest, error)
	PendingDepositRequests(ctx context.Context) ([]models.DepositRequest, error)
	// DecideDepositRequest applies a manual admin decision. Approvals credit
	// the wallet with creditVnd inside the same transaction. Returns
	// ErrDepositNotPending if the request already reached a terminal state.
	DecideDepositRequest(ctx context.Context, id int64, status models.DepositStatus, adminNote string, creditVnd int64) (*models.DepositRequest, error)

	// --- Wallets ---
	GetWalletBalance(ctx context.Context, userId string) (int64, error)
	ListWallets(ctx context.Context) ([]models.Wallet, error)
	AdjustWallet(ctx context.Context, userId string, deltaVnd int64, description string) (int64, error)
	WalletHistory(ctx context.Context, userId string, limit int) ([]models.WalletTransaction, error)

	// --- Bank configs ---
	ListBankConfigs(ctx context.Context) ([]models.BankConfig, error)
	ListEnabledBankConfigs(ctx context.Context) ([]models.BankConfig, error)
	SaveBankConfigs(ctx context.Context, configs []models.BankConfig) error

	// --- Bonus tiers ---
	BonusTiers(ctx context.Context) ([]models.BonusTier, error)
	SaveBonusTiers(ctx context.Context, tiers []models.BonusTier) error

	// --- Settlement and audit ---
	// SettleDeposit performs the atomic settlement unit: dedupe check,
	// PENDING -> APPROVED flip, wallet credit, journal row and SETTLED audit
	// row, all or nothing. Returns ErrAlreadyProcessed or
	// ErrDepositNotPending without mutating anything.
	SettleDeposit(ctx context.Context, params SettleDepositParams) (*models.AutoTopupLog, error)
	HasSettledReference(ctx context.Context, bankConfigId, reference string) (bool, error)
	RecordTopupLog(ctx context.Context, entry models.AutoTopupLog) error
	TopupLogs(ctx context.Context, limit int) ([]models.AutoTopupLog, error)

	// --- Lifecycle ---
	Close()
}
