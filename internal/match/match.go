// Package match correlates extracted bank transactions with pending deposit
// requests by exact correlation token. Matching is a pure function so it can
// be tested against synthetic memos without any storage.
package match

import (
	"fmt"
	"strings"
	"unicode"

	"auto-topup-go/internal/models"
)

// Outcome classifies a correlation attempt.
type Outcome int

const (
	// Matched: exactly one pending deposit's token was found in the memo and
	// the amounts are equal.
	Matched Outcome = iota
	// NoMatch: no pending token appears in the memo. The transaction is
	// ignored and re-evaluated on a later cycle if still in the feed.
	NoMatch
	// Conflict: more than one distinct pending token in the same memo, or
	// the single matched deposit's amount differs from the transfer amount.
	// Conflicts are never auto-resolved.
	Conflict
)

// Result is the outcome of correlating one transaction.
type Result struct {
	Outcome Outcome
	Deposit *models.DepositRequest
	Reason  string
}

// Match scans the memo for pending correlation tokens. The scan is case-
// and whitespace-insensitive: both the memo and the tokens are uppercased
// and stripped of all whitespace before the substring check.
func Match(tx models.BankTransaction, pending []models.DepositRequest) Result {
	memo := normalize(tx.Memo)
	if memo == "" {
		return Result{Outcome: NoMatch}
	}

	var hits []*models.DepositRequest
	for i := range pending {
		token := normalize(pending[i].TransferContent)
		if token == "" {
			continue
		}
		if strings.Contains(memo, token) {
			hits = append(hits, &pending[i])
		}
	}

	switch len(hits) {
	case 0:
		return Result{Outcome: NoMatch}
	case 1:
		deposit := hits[0]
		if deposit.AmountVnd != tx.AmountVnd {
			return Result{
				Outcome: Conflict,
				Deposit: deposit,
				Reason: fmt.Sprintf("amount mismatch: deposit %d expects %d VND, transfer carries %d VND",
					deposit.Id, deposit.AmountVnd, tx.AmountVnd),
			}
		}
		return Result{Outcome: Matched, Deposit: deposit}
	default:
		ids := make([]string, len(hits))
		for i, d := range hits {
			ids[i] = fmt.Sprintf("%d", d.Id)
		}
		return Result{
			Outcome: Conflict,
			Reason:  fmt.Sprintf("memo matches %d pending deposits (%s)", len(hits), strings.Join(ids, ", ")),
		}
	}
}

func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
