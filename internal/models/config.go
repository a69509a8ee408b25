package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Reconciler ReconcilerConfig
	Topup      TopupConfig
	Server     ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ReconcilerConfig holds reconciliation cycle settings
type ReconcilerConfig struct {
	Interval           time.Duration
	FetchTimeout       time.Duration
	FetchWorkers       int
	ProcessedRetention time.Duration
	CleanupInterval    time.Duration
}

// TopupConfig holds the deposit-creation boundary settings: amount bounds,
// the rate limit for new requests, and the receiving bank account printed
// into QR payloads.
type TopupConfig struct {
	MinVnd        int64
	MaxVnd        int64
	RateLimit     int
	RateWindow    time.Duration
	BankName      string
	BankAccount   string
	AccountHolder string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port       string
	AdminToken string
}
