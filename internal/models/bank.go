package models

import "time"

// Credit filter conditions supported by the per-bank field mapping.
const (
	FilterEquals   = "equals"
	FilterGreater  = "greater"
	FilterContains = "contains"
)

// FieldPaths declares where each required transaction field lives inside a
// single element of the bank's transaction array.
type FieldPaths struct {
	Amount    string `json:"amount" yaml:"amount"`
	Content   string `json:"content" yaml:"content"`
	Reference string `json:"reference" yaml:"reference"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// FieldMapping describes how to navigate a bank's response document.
// ArrayPath locates the transaction list; Fields locate the values inside
// each element. Paths use dotted gjson syntax (e.g. "data.transactions").
type FieldMapping struct {
	ArrayPath string     `json:"arrayPath" yaml:"arrayPath"`
	Fields    FieldPaths `json:"fields" yaml:"fields"`
}

// CreditFilter optionally restricts a feed to credit transactions, for banks
// whose feeds mix debits and credits.
type CreditFilter struct {
	Field     string `json:"field" yaml:"field"`
	Condition string `json:"condition" yaml:"condition"` // equals, greater, contains
	Value     string `json:"value" yaml:"value"`
}

// BankConfig is one externally configured bank transaction feed. Owned and
// mutated by the admin surface; read-only to the reconciliation cycle.
type BankConfig struct {
	Id           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Enabled      bool              `json:"enabled" yaml:"enabled"`
	Endpoint     string            `json:"endpoint" yaml:"endpoint"`
	Method       string            `json:"method" yaml:"method"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers"`
	AuthToken    string            `json:"authToken,omitempty" yaml:"authToken"`
	ApiKey       string            `json:"apiKey,omitempty" yaml:"apiKey"`
	FieldMapping FieldMapping      `json:"fieldMapping" yaml:"fieldMapping"`
	CreditFilter *CreditFilter     `json:"creditFilter,omitempty" yaml:"creditFilter"`
	CreatedAt    time.Time         `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time         `json:"updatedAt" yaml:"-"`
}

// BonusTier grants a percentage bonus for deposits inside an inclusive
// amount range. Ranges never overlap across the configured set; that is
// validated when the set is saved, not at calculation time.
type BonusTier struct {
	Id           string `json:"id" yaml:"id"`
	MinAmountVnd int64  `json:"minAmountVnd" yaml:"minAmountVnd"`
	MaxAmountVnd int64  `json:"maxAmountVnd" yaml:"maxAmountVnd"`
	BonusPercent int64  `json:"bonusPercent" yaml:"bonusPercent"`
	Position     int    `json:"position" yaml:"position"`
}
