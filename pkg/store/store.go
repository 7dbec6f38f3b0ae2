// Package store implements invoice and customer persistence on database/sql.
// It speaks either sqlite (the default, matching the single-node deployment)
// or PostgreSQL, selected by Config.Type.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/unip1801/antaeus/pkg/models"
)

// Driver names accepted in Config.Type.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config for the storage backend.
type Config struct {
	Type string // "sqlite" or "postgres"
	DSN  string

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Type:            DriverSQLite,
		DSN:             "/tmp/antaeus.db",
		MaxOpenConns:    20,
		ConnMaxLifetime: time.Hour,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.Type {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown store type %q", c.Type)
	}
	if c.DSN == "" {
		return fmt.Errorf("store DSN must not be empty")
	}
	return nil
}

// InvoiceStore is the full invoice persistence surface.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id int64) (models.Invoice, error)
	ListInvoices(ctx context.Context) ([]models.Invoice, error)
	ListInvoicesByStatuses(ctx context.Context, statuses ...models.InvoiceStatus) ([]models.Invoice, error)
	CountInvoices(ctx context.Context) (int64, error)
	CountInvoicesByStatus(ctx context.Context, status models.InvoiceStatus) (int64, error)
	CreateInvoice(ctx context.Context, customerID int64, amount models.Money, status models.InvoiceStatus) (models.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice models.Invoice) error
	ResetErrorsToPending(ctx context.Context) (int64, error)
}

// CustomerStore is the customer persistence surface.
type CustomerStore interface {
	GetCustomer(ctx context.Context, id int64) (models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	CreateCustomer(ctx context.Context, currency models.Currency) (models.Customer, error)
}

// Open connects to the configured database and verifies the connection.
func Open(cfg Config) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	driver := cfg.Type
	if driver == DriverSQLite {
		driver = "sqlite3" // mattn/go-sqlite3 registers under this name
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Type, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Type, err)
	}
	return db, nil
}

// rebind rewrites ? placeholders into $1..$n for the postgres driver. The
// queries in this package are written with ? and rebound on the way out.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
