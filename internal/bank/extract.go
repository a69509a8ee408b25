package bank

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"auto-topup-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Timestamp layouts observed across bank feeds, tried in order after
// RFC 3339. Day-first layouts come before month-first because the feeds
// this system targets are Vietnamese.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// extractTransaction interprets one element of a bank's transaction array
// against the configured field paths. Amount, memo and reference are hard
// requirements; a missing or malformed value fails this element only. The
// timestamp is best-effort and falls back to the fetch time.
func extractTransaction(elem gjson.Result, mapping models.FieldMapping, fetchedAt time.Time) (models.BankTransaction, error) {
	fields := mapping.Fields

	amountVal := elem.Get(fields.Amount)
	if !amountVal.Exists() {
		return models.BankTransaction{}, fmt.Errorf("amount path %q not found", fields.Amount)
	}
	amount, err := parseAmountVnd(amountVal)
	if err != nil {
		return models.BankTransaction{}, fmt.Errorf("amount path %q: %w", fields.Amount, err)
	}

	memoVal := elem.Get(fields.Content)
	if !memoVal.Exists() {
		return models.BankTransaction{}, fmt.Errorf("content path %q not found", fields.Content)
	}

	refVal := elem.Get(fields.Reference)
	if !refVal.Exists() || refVal.String() == "" {
		return models.BankTransaction{}, fmt.Errorf("reference path %q not found or empty", fields.Reference)
	}

	return models.BankTransaction{
		Reference: refVal.String(),
		AmountVnd: amount,
		Memo:      memoVal.String(),
		Time:      parseTimestamp(elem.Get(fields.Timestamp), fetchedAt),
	}, nil
}

// parseAmountVnd normalises the heterogeneous amount encodings banks use:
// plain numbers, strings with grouping separators ("1,500,000"), or decimal
// strings ("500000.00"). VND has no fractional units, so any non-integral
// value is rejected.
func parseAmountVnd(v gjson.Result) (int64, error) {
	var raw string
	switch v.Type {
	case gjson.Number:
		raw = v.Raw
	case gjson.String:
		raw = strings.ReplaceAll(v.String(), ",", "")
		raw = strings.ReplaceAll(raw, " ", "")
	default:
		return 0, fmt.Errorf("unexpected value type %s", v.Type)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", v.String())
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("fractional VND amount %q", v.String())
	}
	amount := d.IntPart()
	if amount <= 0 {
		return 0, fmt.Errorf("non-positive amount %d", amount)
	}
	return amount, nil
}

func parseTimestamp(v gjson.Result, fallback time.Time) time.Time {
	if !v.Exists() {
		return fallback
	}

	if v.Type == gjson.Number {
		// Epoch seconds or milliseconds.
		n := v.Int()
		if n > 1e12 {
			return time.UnixMilli(n).UTC()
		}
		if n > 0 {
			return time.Unix(n, 0).UTC()
		}
		return fallback
	}

	s := strings.TrimSpace(v.String())
	if s == "" {
		return fallback
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		if n > 1e12 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	}
	return fallback
}

// matchesCreditFilter reports whether an element passes the bank's optional
// credit filter. A nil filter passes everything.
func matchesCreditFilter(elem gjson.Result, filter *models.CreditFilter) bool {
	if filter == nil {
		return true
	}

	v := elem.Get(filter.Field)
	if !v.Exists() {
		return false
	}

	switch filter.Condition {
	case models.FilterEquals:
		return strings.EqualFold(v.String(), filter.Value)
	case models.FilterGreater:
		threshold, err := decimal.NewFromString(filter.Value)
		if err != nil {
			return false
		}
		value, err := decimal.NewFromString(strings.ReplaceAll(v.String(), ",", ""))
		if err != nil {
			return false
		}
		return value.GreaterThan(threshold)
	case models.FilterContains:
		return strings.Contains(strings.ToLower(v.String()), strings.ToLower(filter.Value))
	default:
		return true
	}
}
