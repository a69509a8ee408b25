package database

import (
	"context"
	"database/sql"
	"fmt"

	"auto-topup-go/internal/models"
	"auto-topup-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.Store.
var _ store.Store = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deposit_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		amount_vnd INTEGER NOT NULL CHECK (amount_vnd > 0),
		transfer_content TEXT NOT NULL,
		qr_code TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING',
		admin_note TEXT NOT NULL DEFAULT '',
		decided_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- The correlation token must be unique across non-terminal requests only;
	-- terminal rows may keep historical tokens.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_deposit_requests_pending_token
		ON deposit_requests(transfer_content) WHERE status = 'PENDING';
	CREATE INDEX IF NOT EXISTS idx_deposit_requests_status
		ON deposit_requests(status);
	CREATE INDEX IF NOT EXISTS idx_deposit_requests_user
		ON deposit_requests(user_id, created_at);

	CREATE TABLE IF NOT EXISTS wallets (
		user_id TEXT PRIMARY KEY,
		balance_vnd INTEGER NOT NULL DEFAULT 0 CHECK (balance_vnd >= 0),
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS wallet_transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount_vnd INTEGER NOT NULL,
		balance_after_vnd INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_wallet_transactions_user
		ON wallet_transactions(user_id, created_at);

	CREATE TABLE IF NOT EXISTS bank_configs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		endpoint TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT 'GET',
		headers TEXT NOT NULL DEFAULT '{}',
		auth_token TEXT NOT NULL DEFAULT '',
		api_key TEXT NOT NULL DEFAULT '',
		array_path TEXT NOT NULL,
		amount_path TEXT NOT NULL,
		content_path TEXT NOT NULL,
		reference_path TEXT NOT NULL,
		timestamp_path TEXT NOT NULL,
		filter_field TEXT NOT NULL DEFAULT '',
		filter_condition TEXT NOT NULL DEFAULT '',
		filter_value TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS bonus_tiers (
		id TEXT PRIMARY KEY,
		min_amount_vnd INTEGER NOT NULL,
		max_amount_vnd INTEGER NOT NULL,
		bonus_percent INTEGER NOT NULL,
		position INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS auto_topup_logs (
		id TEXT PRIMARY KEY,
		bank_config_id TEXT NOT NULL,
		bank_name TEXT NOT NULL DEFAULT '',
		bank_reference TEXT NOT NULL DEFAULT '',
		deposit_id INTEGER,
		user_id TEXT NOT NULL DEFAULT '',
		amount_vnd INTEGER NOT NULL DEFAULT 0,
		bonus_vnd INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		transaction_time TIMESTAMP,
		processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- At most one SETTLED row per (bank, reference): the dedupe backstop for
	-- overlapping fetch windows and restarts.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_topup_logs_settled
		ON auto_topup_logs(bank_config_id, bank_reference) WHERE outcome = 'SETTLED';
	CREATE INDEX IF NOT EXISTS idx_topup_logs_processed
		ON auto_topup_logs(processed_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
