package models

import "time"

// DepositStatus is the lifecycle state of a deposit request. Transitions are
// monotone: once APPROVED or REJECTED a request never changes again.
type DepositStatus string

const (
	DepositPending  DepositStatus = "PENDING"
	DepositApproved DepositStatus = "APPROVED"
	DepositRejected DepositStatus = "REJECTED"
)

// DepositRequest is a user's declared intent to add funds. TransferContent is
// the correlation token the user is instructed to put in the bank transfer
// memo; it is unique across all non-terminal requests.
type DepositRequest struct {
	Id              int64         `json:"id"`
	UserId          string        `json:"userId"`
	AmountVnd       int64         `json:"amountVnd"`
	TransferContent string        `json:"transferContent"`
	QrCode          string        `json:"qrCode"`
	Note            string        `json:"note,omitempty"`
	Status          DepositStatus `json:"status"`
	AdminNote       string        `json:"adminNote,omitempty"`
	DecidedAt       *time.Time    `json:"decidedAt,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// Wallet holds a user's spendable balance in integer VND. The balance is
// mutated only by settlement, admin adjustment, or order spend.
type Wallet struct {
	UserId     string    `json:"userId"`
	BalanceVnd int64     `json:"balanceVnd"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// WalletTransaction is one append-only balance movement.
type WalletTransaction struct {
	Id              string    `json:"id"`
	UserId          string    `json:"userId"`
	Type            string    `json:"type"` // DEPOSIT, ADJUSTMENT, PAYMENT
	AmountVnd       int64     `json:"amountVnd"`
	BalanceAfterVnd int64     `json:"balanceAfterVnd"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
