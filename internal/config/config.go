package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string
	DatabaseURI         string
	GatewayAddress      string
	GatewayKeyID        string
	GatewayKeySecret    string
	GatewayTimeout      time.Duration
	Currency            string
	JWTSecret           string
	PendingTTL          time.Duration
	CleanupSchedule     string
	CleanupToken        string
	ReconcileInterval   time.Duration
	ReconcileStaleAfter time.Duration
	WorkerPoolSize      int
	MaxReconcileBatch   int
	RateLimitRPS        float64
	RateLimitBurst      int
	ShutdownTimeout     time.Duration
	LogLevel            string
	SessionTTL          time.Duration
	BcryptCost          int
}

const (
	defaultRunAddress          = ":8080"
	defaultGatewayAddress      = "https://api.razorpay.com"
	defaultGatewayTimeout      = 10 * time.Second
	defaultCurrency            = "INR"
	defaultJWTSecret           = "change-me-in-production"
	defaultPendingTTL          = 24 * time.Hour
	defaultCleanupSchedule     = "@hourly"
	defaultReconcileInterval   = time.Minute
	defaultReconcileStaleAfter = 15 * time.Minute
	defaultWorkerPoolSize      = 4
	defaultMaxReconcileBatch   = 32
	defaultRateLimitRPS        = 5
	defaultRateLimitBurst      = 10
	defaultShutdownTimeout     = 10 * time.Second
	defaultLogLevel            = "info"
	defaultSessionTTL          = 24 * time.Hour
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:         getString(lookup, "DATABASE_URI", ""),
		GatewayAddress:      getString(lookup, "GATEWAY_ADDRESS", defaultGatewayAddress),
		GatewayKeyID:        getString(lookup, "GATEWAY_KEY_ID", ""),
		GatewayKeySecret:    getString(lookup, "GATEWAY_KEY_SECRET", ""),
		GatewayTimeout:      getDuration(lookup, "GATEWAY_TIMEOUT", defaultGatewayTimeout),
		Currency:            getString(lookup, "CURRENCY", defaultCurrency),
		JWTSecret:           getString(lookup, "JWT_SECRET", defaultJWTSecret),
		PendingTTL:          getDuration(lookup, "PENDING_TTL", defaultPendingTTL),
		CleanupSchedule:     getString(lookup, "CLEANUP_SCHEDULE", defaultCleanupSchedule),
		CleanupToken:        getString(lookup, "CLEANUP_TOKEN", ""),
		ReconcileInterval:   getDuration(lookup, "RECONCILE_INTERVAL", defaultReconcileInterval),
		ReconcileStaleAfter: getDuration(lookup, "RECONCILE_STALE_AFTER", defaultReconcileStaleAfter),
		WorkerPoolSize:      getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		MaxReconcileBatch:   getInt(lookup, "RECONCILE_BATCH_SIZE", defaultMaxReconcileBatch),
		RateLimitRPS:        getFloat(lookup, "RATE_LIMIT_RPS", defaultRateLimitRPS),
		RateLimitBurst:      getInt(lookup, "RATE_LIMIT_BURST", defaultRateLimitBurst),
		ShutdownTimeout:     getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:            getString(lookup, "LOG_LEVEL", defaultLogLevel),
		SessionTTL:          getDuration(lookup, "SESSION_TTL", defaultSessionTTL),
		BcryptCost:          getInt(lookup, "BCRYPT_COST", 0),
	}

	fs := flag.NewFlagSet("coursemart", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		gatewayTimeoutStr    = cfg.GatewayTimeout.String()
		pendingTTLStr        = cfg.PendingTTL.String()
		reconcileIntervalStr = cfg.ReconcileInterval.String()
		reconcileStaleStr    = cfg.ReconcileStaleAfter.String()
		shutdownTimeoutStr   = cfg.ShutdownTimeout.String()
		sessionTTLStr        = cfg.SessionTTL.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.GatewayAddress, "g", cfg.GatewayAddress, "Payment gateway base URL")
	fs.StringVar(&cfg.GatewayKeyID, "gateway-key", cfg.GatewayKeyID, "Payment gateway key id")
	fs.StringVar(&cfg.Currency, "currency", cfg.Currency, "Currency of course prices")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.CleanupSchedule, "cleanup-schedule", cfg.CleanupSchedule, "Cron spec of the stale enrollment janitor")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Minimum log level: debug, info, warn or error")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconciliation workers")
	fs.IntVar(&cfg.MaxReconcileBatch, "reconcile-batch", cfg.MaxReconcileBatch, "Maximum enrollments per reconciliation batch")
	fs.StringVar(&gatewayTimeoutStr, "gateway-timeout", gatewayTimeoutStr, "Timeout of a single gateway call")
	fs.StringVar(&pendingTTLStr, "pending-ttl", pendingTTLStr, "Age after which pending enrollments are purged")
	fs.StringVar(&reconcileIntervalStr, "reconcile-interval", reconcileIntervalStr, "Interval between reconciliation sweeps")
	fs.StringVar(&reconcileStaleStr, "reconcile-stale-after", reconcileStaleStr, "Idle time before a pending order is reconciled")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&sessionTTLStr, "session-ttl", sessionTTLStr, "Lifetime of issued session tokens")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.GatewayTimeout, err = time.ParseDuration(gatewayTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid gateway timeout: %w", err)
	}

	if cfg.PendingTTL, err = time.ParseDuration(pendingTTLStr); err != nil {
		return nil, fmt.Errorf("invalid pending ttl: %w", err)
	}

	if cfg.ReconcileInterval, err = time.ParseDuration(reconcileIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid reconcile interval: %w", err)
	}

	if cfg.ReconcileStaleAfter, err = time.ParseDuration(reconcileStaleStr); err != nil {
		return nil, fmt.Errorf("invalid reconcile stale period: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.SessionTTL, err = time.ParseDuration(sessionTTLStr); err != nil {
		return nil, fmt.Errorf("invalid session ttl: %w", err)
	}

	if cfg.JWTSecret, err = readSecretFile(lookup, "JWT_SECRET_FILE", cfg.JWTSecret); err != nil {
		return nil, fmt.Errorf("read jwt secret file: %w", err)
	}

	if cfg.GatewayKeySecret, err = readSecretFile(lookup, "GATEWAY_KEY_SECRET_FILE", cfg.GatewayKeySecret); err != nil {
		return nil, fmt.Errorf("read gateway secret file: %w", err)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.MaxReconcileBatch <= 0 {
		cfg.MaxReconcileBatch = defaultMaxReconcileBatch
	}

	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = defaultGatewayTimeout
	}

	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = defaultPendingTTL
	}

	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = defaultReconcileInterval
	}

	if cfg.ReconcileStaleAfter <= 0 {
		cfg.ReconcileStaleAfter = defaultReconcileStaleAfter
	}

	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = defaultRateLimitRPS
	}

	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.GatewayKeyID == "" || cfg.GatewayKeySecret == "" {
		return nil, fmt.Errorf("payment gateway key id and secret must be provided")
	}

	return cfg, nil
}

func readSecretFile(lookup envLookup, key, current string) (string, error) {
	path, ok := lookup(key)
	if !ok || path == "" {
		return current, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
