package store

import (
	"context"
	"fmt"
)

// sqliteSchema and postgresSchema differ only in the auto-increment key
// syntax. Amounts are stored as text so decimal values survive both drivers
// without loss.
var sqliteSchema = []string{
	`DROP TABLE IF EXISTS invoices`,
	`DROP TABLE IF EXISTS customers`,
	`CREATE TABLE customers (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		currency TEXT NOT NULL
	)`,
	`CREATE TABLE invoices (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		amount      TEXT NOT NULL,
		currency    TEXT NOT NULL,
		status      TEXT NOT NULL
	)`,
	`CREATE INDEX idx_invoices_status ON invoices(status)`,
}

var postgresSchema = []string{
	`DROP TABLE IF EXISTS invoices`,
	`DROP TABLE IF EXISTS customers`,
	`CREATE TABLE customers (
		id       BIGSERIAL PRIMARY KEY,
		currency TEXT NOT NULL
	)`,
	`CREATE TABLE invoices (
		id          BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customers(id),
		amount      TEXT NOT NULL,
		currency    TEXT NOT NULL,
		status      TEXT NOT NULL
	)`,
	`CREATE INDEX idx_invoices_status ON invoices(status)`,
}

// Setup drops and recreates the schema. The service boots from a clean slate
// on every run; durable invoice history is out of scope.
func (s *SQLStore) Setup(ctx context.Context) error {
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set up schema: %w", err)
		}
	}
	return nil
}
