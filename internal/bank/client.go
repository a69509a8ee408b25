package bank

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"auto-topup-go/internal/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a bank response is read into memory.
const maxResponseBytes = 10 << 20

// ParseFailure describes one array element that could not be interpreted as
// a bank transaction. Failures are isolated: a bad element never discards
// the rest of the batch.
type ParseFailure struct {
	Index  int
	Reason string
}

// Client fetches transaction feeds from configured bank APIs.
type Client struct {
	http         *http.Client
	fetchTimeout time.Duration
}

func NewClient(fetchTimeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: fetchTimeout,
		},
		fetchTimeout: fetchTimeout,
	}
}

// FetchTransactions calls the bank's endpoint as configured and extracts its
// transaction array. Network and response-shape failures return an error;
// per-element extraction failures are returned alongside the transactions
// that did parse.
func (c *Client) FetchTransactions(ctx context.Context, cfg models.BankConfig) ([]models.BankTransaction, []ParseFailure, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.Endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request for bank %s: %w", cfg.Name, err)
	}

	req.Header.Set("Accept", "application/json")
	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}
	if cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.AuthToken)
	}
	if cfg.ApiKey != "" {
		req.Header.Set("X-API-Key", cfg.ApiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request to bank %s failed: %w", cfg.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response from bank %s: %w", cfg.Name, err)
	}
	if len(body) > maxResponseBytes {
		return nil, nil, fmt.Errorf("bank %s response exceeds %d bytes", cfg.Name, maxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("bank %s returned status %d", cfg.Name, resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return nil, nil, fmt.Errorf("bank %s returned invalid JSON", cfg.Name)
	}

	root := gjson.ParseBytes(body)
	arr := root
	if cfg.FieldMapping.ArrayPath != "" {
		arr = root.Get(cfg.FieldMapping.ArrayPath)
	}
	if !arr.Exists() {
		return nil, nil, fmt.Errorf("bank %s response has no array at path %q", cfg.Name, cfg.FieldMapping.ArrayPath)
	}
	if !arr.IsArray() {
		return nil, nil, fmt.Errorf("bank %s path %q is not an array", cfg.Name, cfg.FieldMapping.ArrayPath)
	}

	fetchedAt := time.Now().UTC()

	var (
		transactions []models.BankTransaction
		failures     []ParseFailure
	)
	for i, elem := range arr.Array() {
		if !matchesCreditFilter(elem, cfg.CreditFilter) {
			continue
		}
		txn, err := extractTransaction(elem, cfg.FieldMapping, fetchedAt)
		if err != nil {
			failures = append(failures, ParseFailure{Index: i, Reason: err.Error()})
			continue
		}
		transactions = append(transactions, txn)
	}

	zap.L().Debug("Fetched bank transactions",
		zap.String("bank", cfg.Name),
		zap.Int("transactions", len(transactions)),
		zap.Int("parseFailures", len(failures)))

	return transactions, failures, nil
}
