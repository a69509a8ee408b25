package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"auto-topup-go/internal/bank"
	"auto-topup-go/internal/bonus"
	"auto-topup-go/internal/match"
	"auto-topup-go/internal/models"
	"auto-topup-go/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine runs reconciliation cycles: fetch every enabled bank feed, correlate
// credits against pending deposit requests, and settle the matches. Bank
// failures are isolated per bank and a cycle always runs to completion.
type Engine struct {
	store     store.Store
	client    *bank.Client
	recorder  *Recorder
	workers   int
	retention time.Duration

	mu          sync.Mutex
	processed   map[string]time.Time
	lastSummary *models.CycleSummary
}

func NewEngine(st store.Store, client *bank.Client, workers int, retention time.Duration) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		store:     st,
		client:    client,
		recorder:  NewRecorder(st),
		workers:   workers,
		retention: retention,
		processed: make(map[string]time.Time),
	}
}

type bankFetch struct {
	cfg      models.BankConfig
	txns     []models.BankTransaction
	failures []bank.ParseFailure
	err      error
}

// RunCycle executes one full reconciliation pass. It never returns an error:
// every failure mode becomes an audit row and a counter in the summary.
func (e *Engine) RunCycle(ctx context.Context) models.CycleSummary {
	summary := models.CycleSummary{StartedAt: time.Now().UTC()}

	e.pruneProcessed(summary.StartedAt)

	configs, err := e.store.ListEnabledBankConfigs(ctx)
	if err != nil {
		zap.L().Error("Failed to list enabled bank configs", zap.Error(err))
		summary.FinishedAt = time.Now().UTC()
		e.setLastSummary(summary)
		return summary
	}
	summary.BanksChecked = len(configs)
	if len(configs) == 0 {
		summary.FinishedAt = time.Now().UTC()
		e.setLastSummary(summary)
		return summary
	}

	pending, err := e.store.PendingDepositRequests(ctx)
	if err != nil {
		zap.L().Error("Failed to load pending deposit requests", zap.Error(err))
		summary.FinishedAt = time.Now().UTC()
		e.setLastSummary(summary)
		return summary
	}

	fetches := e.fetchAll(ctx, configs)

	for _, f := range fetches {
		result := e.processBank(ctx, f, &pending)
		summary.PerBank = append(summary.PerBank, result)
		summary.Processed += result.Transactions
		summary.Settled += result.Settled
		summary.Failed += result.Failed
	}

	summary.FinishedAt = time.Now().UTC()
	e.setLastSummary(summary)
	zap.L().Info("Reconciliation cycle finished",
		zap.Int("banks", summary.BanksChecked),
		zap.Int("transactions", summary.Processed),
		zap.Int("settled", summary.Settled),
		zap.Int("failed", summary.Failed),
		zap.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)))
	return summary
}

// fetchAll retrieves every bank feed with bounded concurrency. Fetch results
// come back in config order so processing stays deterministic.
func (e *Engine) fetchAll(ctx context.Context, configs []models.BankConfig) []bankFetch {
	fetches := make([]bankFetch, len(configs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			fetches[i] = e.fetchOne(gctx, cfg)
			return nil
		})
	}
	// Workers never return errors; Wait is only a join point.
	_ = g.Wait()

	return fetches
}

func (e *Engine) fetchOne(ctx context.Context, cfg models.BankConfig) bankFetch {
	if err := bank.ValidateConfig(cfg); err != nil {
		return bankFetch{cfg: cfg, err: fmt.Errorf("invalid bank config: %w", err)}
	}
	txns, failures, err := e.client.FetchTransactions(ctx, cfg)
	return bankFetch{cfg: cfg, txns: txns, failures: failures, err: err}
}

// processBank handles a single bank's fetch result sequentially. Settled
// deposits are removed from the shared pending slice so a token can only be
// consumed once per cycle even if two banks report it.
func (e *Engine) processBank(ctx context.Context, f bankFetch, pending *[]models.DepositRequest) models.BankCycleResult {
	result := models.BankCycleResult{BankId: f.cfg.Id, BankName: f.cfg.Name}
	now := time.Now().UTC()

	if f.err != nil {
		result.Error = f.err.Error()
		result.Failed++
		zap.L().Warn("Bank fetch failed",
			zap.String("bank", f.cfg.Name),
			zap.Error(f.err))
		e.recorder.Record(ctx, models.AutoTopupLog{
			BankConfigId:    f.cfg.Id,
			BankName:        f.cfg.Name,
			Outcome:         models.OutcomeFetchError,
			Detail:          f.err.Error(),
			TransactionTime: now,
		})
		return result
	}

	for _, pf := range f.failures {
		result.Failed++
		e.recorder.Record(ctx, models.AutoTopupLog{
			BankConfigId:    f.cfg.Id,
			BankName:        f.cfg.Name,
			Outcome:         models.OutcomeParseError,
			Detail:          fmt.Sprintf("element %d: %s", pf.Index, pf.Reason),
			TransactionTime: now,
		})
	}

	for _, tx := range f.txns {
		result.Transactions++
		outcome := e.processTransaction(ctx, f.cfg, tx, pending)
		switch outcome {
		case models.OutcomeSettled:
			result.Settled++
		case models.OutcomeConflict, models.OutcomeNoMatch:
			result.Failed++
		}
	}

	return result
}

// processTransaction runs the per-transaction pipeline: dedupe, correlate,
// price the bonus, settle. The returned outcome is what the audit trail got.
func (e *Engine) processTransaction(ctx context.Context, cfg models.BankConfig, tx models.BankTransaction, pending *[]models.DepositRequest) models.Outcome {
	key := cfg.Id + "/" + tx.Reference

	// A warm cache hit skips the audit row: each reference gets at most one
	// ALREADY_PROCESSED row per retention window, written on the cold path
	// below, not one per polled repeat.
	if e.isProcessed(key) {
		return models.OutcomeAlreadyProcessed
	}

	settled, err := e.store.HasSettledReference(ctx, cfg.Id, tx.Reference)
	if err != nil {
		zap.L().Error("Failed to check settled reference",
			zap.String("bank", cfg.Name),
			zap.String("reference", tx.Reference),
			zap.Error(err))
		return models.OutcomeFetchError
	}
	if settled {
		e.markProcessed(key)
		e.recorder.Record(ctx, models.AutoTopupLog{
			BankConfigId:    cfg.Id,
			BankName:        cfg.Name,
			BankReference:   tx.Reference,
			AmountVnd:       tx.AmountVnd,
			Outcome:         models.OutcomeAlreadyProcessed,
			Detail:          "reference settled in an earlier cycle",
			TransactionTime: tx.Time,
		})
		return models.OutcomeAlreadyProcessed
	}

	m := match.Match(tx, *pending)
	switch m.Outcome {
	case match.NoMatch:
		e.recorder.Record(ctx, models.AutoTopupLog{
			BankConfigId:    cfg.Id,
			BankName:        cfg.Name,
			BankReference:   tx.Reference,
			AmountVnd:       tx.AmountVnd,
			Outcome:         models.OutcomeNoMatch,
			Detail:          "no pending deposit token in memo",
			TransactionTime: tx.Time,
		})
		return models.OutcomeNoMatch

	case match.Conflict:
		// Conflicts are recorded every cycle they recur so they stay
		// visible until an admin resolves them manually.
		e.recorder.Record(ctx, models.AutoTopupLog{
			BankConfigId:    cfg.Id,
			BankName:        cfg.Name,
			BankReference:   tx.Reference,
			AmountVnd:       tx.AmountVnd,
			Outcome:         models.OutcomeConflict,
			Detail:          m.Reason,
			TransactionTime: tx.Time,
		})
		return models.OutcomeConflict
	}

	deposit := m.Deposit

	tiers, err := e.store.BonusTiers(ctx)
	if err != nil {
		zap.L().Error("Failed to load bonus tiers", zap.Error(err))
		return models.OutcomeFetchError
	}
	priced := bonus.Calculate(tx.AmountVnd, tiers)

	_, err = e.store.SettleDeposit(ctx, store.SettleDepositParams{
		DepositId:       deposit.Id,
		UserId:          deposit.UserId,
		BankConfigId:    cfg.Id,
		BankName:        cfg.Name,
		BankReference:   tx.Reference,
		AmountVnd:       tx.AmountVnd,
		BonusVnd:        priced.BonusVnd,
		TotalVnd:        priced.TotalVnd,
		TransactionTime: tx.Time,
	})
	switch {
	case err == nil:
		e.markProcessed(key)
		e.removePending(pending, deposit.Id)
		zap.L().Info("Deposit settled",
			zap.Int64("depositId", deposit.Id),
			zap.String("userId", deposit.UserId),
			zap.String("bank", cfg.Name),
			zap.String("reference", tx.Reference),
			zap.Int64("amountVnd", tx.AmountVnd),
			zap.Int64("bonusVnd", priced.BonusVnd))
		return models.OutcomeSettled

	case errors.Is(err, store.ErrAlreadyProcessed):
		e.markProcessed(key)
		e.recorder.Record(ctx, models.AutoTopupLog{
			BankConfigId:    cfg.Id,
			BankName:        cfg.Name,
			BankReference:   tx.Reference,
			AmountVnd:       tx.AmountVnd,
			Outcome:         models.OutcomeAlreadyProcessed,
			Detail:          "reference settled concurrently",
			TransactionTime: tx.Time,
		})
		return models.OutcomeAlreadyProcessed

	case errors.Is(err, store.ErrDepositNotPending):
		e.removePending(pending, deposit.Id)
		e.recorder.Record(ctx, models.AutoTopupLog{
			BankConfigId:    cfg.Id,
			BankName:        cfg.Name,
			BankReference:   tx.Reference,
			DepositId:       &deposit.Id,
			UserId:          deposit.UserId,
			AmountVnd:       tx.AmountVnd,
			Outcome:         models.OutcomeConflict,
			Detail:          "matched deposit left pending state before settlement",
			TransactionTime: tx.Time,
		})
		return models.OutcomeConflict

	default:
		zap.L().Error("Settlement failed",
			zap.Int64("depositId", deposit.Id),
			zap.String("reference", tx.Reference),
			zap.Error(err))
		return models.OutcomeFetchError
	}
}

func (e *Engine) removePending(pending *[]models.DepositRequest, depositId int64) {
	p := *pending
	for i := range p {
		if p[i].Id == depositId {
			*pending = append(p[:i], p[i+1:]...)
			return
		}
	}
}

func (e *Engine) setLastSummary(summary models.CycleSummary) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSummary = &summary
}

// LastSummary returns the most recent cycle summary, or nil before the
// first cycle has run.
func (e *Engine) LastSummary() *models.CycleSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSummary
}

func (e *Engine) isProcessed(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.processed[key]
	return ok
}

func (e *Engine) markProcessed(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processed[key] = time.Now().UTC()
}

// pruneProcessed drops cache entries older than the retention window. The
// database keeps the durable dedupe record; the cache only saves queries for
// references that keep reappearing in feeds.
func (e *Engine) pruneProcessed(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cutoff := now.Add(-e.retention)
	for key, seen := range e.processed {
		if seen.Before(cutoff) {
			delete(e.processed, key)
		}
	}
}

// RunCleanupLoop periodically prunes the processed-reference cache. Intended
// to run as a goroutine alongside the scheduler.
func (e *Engine) RunCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pruneProcessed(time.Now().UTC())
		}
	}
}
