package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress  string
	DatabaseURI string
	LogLevel    string

	SeedPhrase     string
	BitcoinNetwork string

	WebhookSecret         string
	ConfirmationThreshold int
	ClientPollInterval    time.Duration
	AmountTolerance       decimal.Decimal
	SettleMismatch        bool

	RatesAPIAddress string
	FixedBTCRate    decimal.Decimal
	FiatCurrency    string

	ProcessorAPIAddress string
	ProcessorAPIKey     string
	ZelleRecipient      string

	ExplorerAPIAddress string
	WatchInterval      time.Duration
	WorkerPoolSize     int
	MaxOrdersBatch     int

	StaleOrderTTL time.Duration
	SweepInterval time.Duration

	NotifyWebhookURL  string
	NotifySQSQueueURL string
	AWSRegion         string

	AdminUsername     string
	AdminPasswordHash string
	AdminTokenTTL     time.Duration
	BcryptCost        int
	JWTSecret         string

	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

const (
	defaultRunAddress            = ":8080"
	defaultLogLevel              = "info"
	defaultBitcoinNetwork        = "mainnet"
	defaultConfirmationThreshold = 6
	defaultClientPollInterval    = 10 * time.Second
	defaultRatesAPIAddress       = "https://api.coinbase.com"
	defaultFiatCurrency          = "USD"
	defaultZelleRecipient        = "payments@storefront.example"
	defaultWatchInterval         = 30 * time.Second
	defaultWorkerPoolSize        = 4
	defaultMaxOrdersBatch        = 32
	defaultSweepInterval         = time.Minute
	defaultAWSRegion             = "us-east-1"
	defaultAdminUsername         = "admin"
	defaultJWTSecret             = "change-me-in-production"
	defaultShutdownTimeout       = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:           getString(lookup, "DATABASE_URI", ""),
		LogLevel:              getString(lookup, "LOG_LEVEL", defaultLogLevel),
		SeedPhrase:            getString(lookup, "BITCOIN_SEED_PHRASE", ""),
		BitcoinNetwork:        getString(lookup, "BITCOIN_NETWORK", defaultBitcoinNetwork),
		WebhookSecret:         getString(lookup, "WEBHOOK_SECRET", ""),
		ConfirmationThreshold: getInt(lookup, "CONFIRMATION_THRESHOLD", defaultConfirmationThreshold),
		ClientPollInterval:    getDuration(lookup, "CLIENT_POLL_INTERVAL", defaultClientPollInterval),
		AmountTolerance:       getDecimal(lookup, "AMOUNT_TOLERANCE", decimal.Zero),
		SettleMismatch:        getBool(lookup, "SETTLE_AMOUNT_MISMATCH", false),
		RatesAPIAddress:       getString(lookup, "RATES_API_ADDRESS", defaultRatesAPIAddress),
		FixedBTCRate:          getDecimal(lookup, "BTC_FIXED_RATE", decimal.Zero),
		FiatCurrency:          getString(lookup, "FIAT_CURRENCY", defaultFiatCurrency),
		ProcessorAPIAddress:   getString(lookup, "PROCESSOR_API_ADDRESS", ""),
		ProcessorAPIKey:       getString(lookup, "PROCESSOR_API_KEY", ""),
		ZelleRecipient:        getString(lookup, "ZELLE_RECIPIENT", defaultZelleRecipient),
		ExplorerAPIAddress:    getString(lookup, "EXPLORER_API_ADDRESS", ""),
		WatchInterval:         getDuration(lookup, "WATCH_INTERVAL", defaultWatchInterval),
		WorkerPoolSize:        getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		MaxOrdersBatch:        getInt(lookup, "POLL_BATCH_SIZE", defaultMaxOrdersBatch),
		StaleOrderTTL:         getDuration(lookup, "STALE_ORDER_TTL", 0),
		SweepInterval:         getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		NotifyWebhookURL:      getString(lookup, "NOTIFY_WEBHOOK_URL", ""),
		NotifySQSQueueURL:     getString(lookup, "NOTIFY_SQS_QUEUE_URL", ""),
		AWSRegion:             getString(lookup, "AWS_REGION", defaultAWSRegion),
		AdminUsername:         getString(lookup, "ADMIN_USERNAME", defaultAdminUsername),
		AdminPasswordHash:     getString(lookup, "ADMIN_PASSWORD_HASH", ""),
		AdminTokenTTL:         getDuration(lookup, "ADMIN_TOKEN_TTL", 0),
		BcryptCost:            getInt(lookup, "BCRYPT_COST", 0),
		JWTSecret:             getString(lookup, "JWT_SECRET", defaultJWTSecret),
		CORSOrigins:           splitList(getString(lookup, "CORS_ORIGINS", "")),
		ShutdownTimeout:       getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.ClientPollInterval.String()
		watchIntervalStr   = cfg.WatchInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.BitcoinNetwork, "network", cfg.BitcoinNetwork, "Bitcoin network for derived addresses")
	fs.IntVar(&cfg.ConfirmationThreshold, "confirmations", cfg.ConfirmationThreshold, "Confirmations required to settle on-chain payments")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Client status polling interval")
	fs.StringVar(&cfg.ExplorerAPIAddress, "explorer", cfg.ExplorerAPIAddress, "Block explorer base URL")
	fs.StringVar(&watchIntervalStr, "watch-interval", watchIntervalStr, "Interval between explorer polls")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent watcher workers")
	fs.IntVar(&cfg.MaxOrdersBatch, "poll-batch", cfg.MaxOrdersBatch, "Maximum orders per watcher batch")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing admin tokens")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ClientPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.WatchInterval, err = time.ParseDuration(watchIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid watch interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	secrets := []struct {
		key    string
		target *string
	}{
		{"BITCOIN_SEED_PHRASE_FILE", &cfg.SeedPhrase},
		{"WEBHOOK_SECRET_FILE", &cfg.WebhookSecret},
		{"JWT_SECRET_FILE", &cfg.JWTSecret},
	}
	for _, s := range secrets {
		if err := readSecretFile(lookup, s.key, s.target); err != nil {
			return nil, err
		}
	}

	if cfg.ConfirmationThreshold <= 0 {
		cfg.ConfirmationThreshold = defaultConfirmationThreshold
	}

	if cfg.ClientPollInterval <= 0 {
		cfg.ClientPollInterval = defaultClientPollInterval
	}

	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = defaultWatchInterval
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.MaxOrdersBatch <= 0 {
		cfg.MaxOrdersBatch = defaultMaxOrdersBatch
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.StaleOrderTTL < 0 {
		cfg.StaleOrderTTL = 0
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.AdminTokenTTL < 0 {
		cfg.AdminTokenTTL = 0
	}

	if cfg.AmountTolerance.IsNegative() {
		cfg.AmountTolerance = decimal.Zero
	}

	cfg.FiatCurrency = strings.ToUpper(cfg.FiatCurrency)

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if strings.TrimSpace(cfg.SeedPhrase) == "" {
		return nil, fmt.Errorf("bitcoin seed phrase must be provided")
	}

	return cfg, nil
}

func readSecretFile(lookup envLookup, key string, target *string) error {
	path, ok := lookup(key)
	if !ok || path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", strings.ToLower(key), err)
	}
	*target = strings.TrimSpace(string(content))
	return nil
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

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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

func getDecimal(lookup envLookup, key string, def decimal.Decimal) decimal.Decimal {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
