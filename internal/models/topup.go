package models

import "time"

// BankTransaction is one transaction extracted from a bank feed and
// normalised to the internal shape.
type BankTransaction struct {
	Reference string    `json:"reference"`
	AmountVnd int64     `json:"amountVnd"`
	Memo      string    `json:"memo"`
	Time      time.Time `json:"time"`
}

// Outcome classifies the result of processing one bank transaction (or one
// whole bank, for FETCH_ERROR).
type Outcome string

const (
	OutcomeSettled          Outcome = "SETTLED"
	OutcomeAlreadyProcessed Outcome = "ALREADY_PROCESSED"
	OutcomeNoMatch          Outcome = "NO_MATCH"
	OutcomeConflict         Outcome = "CONFLICT"
	OutcomeFetchError       Outcome = "FETCH_ERROR"
	OutcomeParseError       Outcome = "PARSE_ERROR"
)

// AutoTopupLog is one append-only audit row. Rows are never mutated after
// insertion; they are the trail of record for every processing outcome.
type AutoTopupLog struct {
	Id              string    `json:"id"`
	BankConfigId    string    `json:"bankConfigId"`
	BankName        string    `json:"bankName"`
	BankReference   string    `json:"bankReference"`
	DepositId       *int64    `json:"depositId,omitempty"`
	UserId          string    `json:"userId,omitempty"`
	AmountVnd       int64     `json:"amountVnd"`
	BonusVnd        int64     `json:"bonusVnd"`
	Outcome         Outcome   `json:"outcome"`
	Detail          string    `json:"detail,omitempty"`
	TransactionTime time.Time `json:"transactionTime"`
	ProcessedAt     time.Time `json:"processedAt"`
}

// BankCycleResult is the per-bank slice of a cycle summary.
type BankCycleResult struct {
	BankId       string `json:"bankId"`
	BankName     string `json:"bankName"`
	Transactions int    `json:"transactions"`
	Settled      int    `json:"settled"`
	Failed       int    `json:"failed"`
	Error        string `json:"error,omitempty"`
}

// CycleSummary reports one full reconciliation pass across all enabled
// banks. A cycle always completes; failures are counted, never propagated.
type CycleSummary struct {
	StartedAt    time.Time         `json:"startedAt"`
	FinishedAt   time.Time         `json:"finishedAt"`
	BanksChecked int               `json:"banksChecked"`
	Processed    int               `json:"processed"`
	Settled      int               `json:"settled"`
	Failed       int               `json:"failed"`
	PerBank      []BankCycleResult `json:"perBank"`
}
