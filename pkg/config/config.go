package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/unip1801/antaeus/pkg/observability"
	"github.com/unip1801/antaeus/pkg/store"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Store store.Config

	// Billing configuration
	Billing BillingConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// BillingConfig holds billing engine and scheduler settings
type BillingConfig struct {
	// TriggerDay is the day of the month the scheduler runs a pass on.
	TriggerDay int

	// RetryErrorInvoices includes ERROR invoices in the eligible set of a
	// pass.
	RetryErrorInvoices bool

	// SchedulerAutostart launches the scheduler at boot.
	SchedulerAutostart bool

	// Seed controls whether the store is dropped, recreated and filled with
	// sample data at startup.
	Seed               bool
	SeedCustomers      int
	SeedInvoicesPerCus int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Store:         loadStoreConfig(),
		Billing:       loadBillingConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("ANTAEUS_HOST", "0.0.0.0"),
		Port:            getEnv("ANTAEUS_PORT", "7000"),
		ReadTimeout:     getEnvDuration("ANTAEUS_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("ANTAEUS_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("ANTAEUS_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("ANTAEUS_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadStoreConfig loads storage configuration from environment
func loadStoreConfig() store.Config {
	cfg := store.DefaultConfig()

	if storeType := getEnv("ANTAEUS_STORE_TYPE", ""); storeType != "" {
		cfg.Type = storeType
	}
	if dsn := getEnv("ANTAEUS_STORE_DSN", ""); dsn != "" {
		cfg.DSN = dsn
	}
	if maxConns := getEnvInt("ANTAEUS_STORE_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxOpenConns = maxConns
	}
	if lifetime := getEnvDuration("ANTAEUS_STORE_CONN_MAX_LIFETIME", 0); lifetime > 0 {
		cfg.ConnMaxLifetime = lifetime
	}

	return cfg
}

// loadBillingConfig loads billing configuration from environment
func loadBillingConfig() BillingConfig {
	return BillingConfig{
		TriggerDay:         getEnvInt("ANTAEUS_BILLING_TRIGGER_DAY", 1),
		RetryErrorInvoices: getEnvBool("ANTAEUS_BILLING_RETRY_ERROR_INVOICES", true),
		SchedulerAutostart: getEnvBool("ANTAEUS_SCHEDULER_AUTOSTART", true),
		Seed:               getEnvBool("ANTAEUS_SEED", true),
		SeedCustomers:      getEnvInt("ANTAEUS_SEED_CUSTOMERS", 100),
		SeedInvoicesPerCus: getEnvInt("ANTAEUS_SEED_INVOICES_PER_CUSTOMER", 10),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("ANTAEUS_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("ANTAEUS_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if err := c.Store.Validate(); err != nil {
		return err
	}

	if c.Billing.TriggerDay < 1 || c.Billing.TriggerDay > 28 {
		return fmt.Errorf("billing trigger day must be between 1 and 28, got %d", c.Billing.TriggerDay)
	}
	if c.Billing.Seed {
		if c.Billing.SeedCustomers <= 0 {
			return fmt.Errorf("seed customer count must be positive, got %d", c.Billing.SeedCustomers)
		}
		if c.Billing.SeedInvoicesPerCus <= 0 {
			return fmt.Errorf("seed invoices per customer must be positive, got %d", c.Billing.SeedInvoicesPerCus)
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
