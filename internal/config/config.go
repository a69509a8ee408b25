package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"auto-topup-go/internal/models"
)

func Load() (*models.Config, error) {
	interval, err := getEnvDuration("RECONCILE_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := getEnvDuration("BANK_FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	processedRetention, err := getEnvDuration("PROCESSED_RETENTION", 6*time.Hour)
	if err != nil {
		return nil, err
	}

	cleanupInterval, err := getEnvDuration("PROCESSED_CLEANUP_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	rateWindow, err := getEnvDuration("TOPUP_RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "topup.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Reconciler: models.ReconcilerConfig{
			Interval:           interval,
			FetchTimeout:       fetchTimeout,
			FetchWorkers:       getEnvInt("BANK_FETCH_WORKERS", 4),
			ProcessedRetention: processedRetention,
			CleanupInterval:    cleanupInterval,
		},
		Topup: models.TopupConfig{
			MinVnd:        getEnvInt64("TOPUP_MIN_VND", 10_000),
			MaxVnd:        getEnvInt64("TOPUP_MAX_VND", 100_000_000),
			RateLimit:     getEnvInt("TOPUP_RATE_LIMIT", 5),
			RateWindow:    rateWindow,
			BankName:      getEnvString("TOPUP_BANK_NAME", "vietcombank"),
			BankAccount:   getEnvString("TOPUP_BANK_ACCOUNT", ""),
			AccountHolder: getEnvString("TOPUP_ACCOUNT_HOLDER", ""),
		},
		Server: models.ServerConfig{
			Port:       getEnvString("SERVER_PORT", "8080"),
			AdminToken: getEnvString("ADMIN_TOKEN", ""),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
