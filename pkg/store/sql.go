package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/unip1801/antaeus/pkg/models"
)

// SQLStore implements InvoiceStore and CustomerStore over database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
}

var (
	_ InvoiceStore  = (*SQLStore)(nil)
	_ CustomerStore = (*SQLStore)(nil)
)

// NewSQLStore creates a store bound to db. driver must be one of
// DriverSQLite or DriverPostgres; it controls placeholder style and DDL.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

const invoiceColumns = "id, customer_id, amount, currency, status"

func scanInvoice(row interface{ Scan(...interface{}) error }) (models.Invoice, error) {
	var (
		inv      models.Invoice
		amount   string
		currency string
		status   string
	)
	if err := row.Scan(&inv.ID, &inv.CustomerID, &amount, &currency, &status); err != nil {
		return models.Invoice{}, err
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return models.Invoice{}, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	cur, err := models.ParseCurrency(currency)
	if err != nil {
		return models.Invoice{}, fmt.Errorf("invalid stored invoice: %w", err)
	}
	st, err := models.ParseInvoiceStatus(status)
	if err != nil {
		return models.Invoice{}, fmt.Errorf("invalid stored invoice: %w", err)
	}

	inv.Amount = models.Money{Amount: value, Currency: cur}
	inv.Status = st
	return inv, nil
}

// GetInvoice fetches a single invoice by id.
func (s *SQLStore) GetInvoice(ctx context.Context, id int64) (models.Invoice, error) {
	query := rebind(s.driver, "SELECT "+invoiceColumns+" FROM invoices WHERE id = ?")
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invoice{}, fmt.Errorf("invoice %d: %w", id, models.ErrInvoiceNotFound)
	}
	if err != nil {
		return models.Invoice{}, fmt.Errorf("failed to get invoice %d: %w", id, err)
	}
	return inv, nil
}

// ListInvoices returns every invoice ordered by id.
func (s *SQLStore) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices ORDER BY id"
	return s.queryInvoices(ctx, query)
}

// ListInvoicesByStatuses returns all invoices whose status is in the given
// set, ordered by id.
func (s *SQLStore) ListInvoicesByStatuses(ctx context.Context, statuses ...models.InvoiceStatus) ([]models.Invoice, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]interface{}, len(statuses))
	for i, status := range statuses {
		if !status.Valid() {
			return nil, fmt.Errorf("unknown invoice status %q", status)
		}
		placeholders[i] = "?"
		args[i] = status.String()
	}

	query := rebind(s.driver, "SELECT "+invoiceColumns+" FROM invoices WHERE status IN ("+
		strings.Join(placeholders, ", ")+") ORDER BY id")
	return s.queryInvoices(ctx, query, args...)
}

func (s *SQLStore) queryInvoices(ctx context.Context, query string, args ...interface{}) ([]models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// CountInvoices returns the total number of invoices.
func (s *SQLStore) CountInvoices(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

// CountInvoicesByStatus returns the number of invoices in the given status.
func (s *SQLStore) CountInvoicesByStatus(ctx context.Context, status models.InvoiceStatus) (int64, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("unknown invoice status %q", status)
	}
	query := rebind(s.driver, "SELECT COUNT(*) FROM invoices WHERE status = ?")
	var count int64
	if err := s.db.QueryRowContext(ctx, query, status.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s invoices: %w", status, err)
	}
	return count, nil
}

// CreateInvoice inserts a new invoice and returns it with its assigned id.
func (s *SQLStore) CreateInvoice(ctx context.Context, customerID int64, amount models.Money, status models.InvoiceStatus) (models.Invoice, error) {
	if !status.Valid() {
		return models.Invoice{}, fmt.Errorf("unknown invoice status %q", status)
	}

	var id int64
	if s.driver == DriverPostgres {
		query := rebind(s.driver,
			"INSERT INTO invoices (customer_id, amount, currency, status) VALUES (?, ?, ?, ?) RETURNING id")
		err := s.db.QueryRowContext(ctx, query,
			customerID, amount.Amount.String(), amount.Currency.String(), status.String()).Scan(&id)
		if err != nil {
			return models.Invoice{}, fmt.Errorf("failed to create invoice: %w", err)
		}
	} else {
		query := "INSERT INTO invoices (customer_id, amount, currency, status) VALUES (?, ?, ?, ?)"
		res, err := s.db.ExecContext(ctx, query,
			customerID, amount.Amount.String(), amount.Currency.String(), status.String())
		if err != nil {
			return models.Invoice{}, fmt.Errorf("failed to create invoice: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return models.Invoice{}, fmt.Errorf("failed to read new invoice id: %w", err)
		}
	}

	return models.Invoice{ID: id, CustomerID: customerID, Amount: amount, Status: status}, nil
}

// UpdateInvoice replaces the mutable fields of an invoice (amount, currency,
// status). The id and customer_id columns are never written after creation.
func (s *SQLStore) UpdateInvoice(ctx context.Context, invoice models.Invoice) error {
	query := rebind(s.driver, "UPDATE invoices SET amount = ?, currency = ?, status = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query,
		invoice.Amount.Amount.String(), invoice.Amount.Currency.String(), invoice.Status.String(), invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to update invoice %d: %w", invoice.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update invoice %d: %w", invoice.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("invoice %d: %w", invoice.ID, models.ErrInvoiceNotFound)
	}
	return nil
}

// ResetErrorsToPending moves every ERROR invoice back to PENDING so the next
// billing pass picks it up again. Returns the number of invoices reset.
func (s *SQLStore) ResetErrorsToPending(ctx context.Context) (int64, error) {
	query := rebind(s.driver, "UPDATE invoices SET status = ? WHERE status = ?")
	res, err := s.db.ExecContext(ctx, query, models.StatusPending.String(), models.StatusError.String())
	if err != nil {
		return 0, fmt.Errorf("failed to reset error invoices: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to reset error invoices: %w", err)
	}
	return affected, nil
}

// GetCustomer fetches a single customer by id.
func (s *SQLStore) GetCustomer(ctx context.Context, id int64) (models.Customer, error) {
	query := rebind(s.driver, "SELECT id, currency FROM customers WHERE id = ?")
	var (
		customer models.Customer
		currency string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&customer.ID, &currency)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, fmt.Errorf("customer %d: %w", id, models.ErrCustomerNotFound)
	}
	if err != nil {
		return models.Customer{}, fmt.Errorf("failed to get customer %d: %w", id, err)
	}

	cur, err := models.ParseCurrency(currency)
	if err != nil {
		return models.Customer{}, fmt.Errorf("invalid stored customer %d: %w", id, err)
	}
	customer.Currency = cur
	return customer, nil
}

// ListCustomers returns every customer ordered by id.
func (s *SQLStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, currency FROM customers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var (
			customer models.Customer
			currency string
		)
		if err := rows.Scan(&customer.ID, &currency); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		cur, err := models.ParseCurrency(currency)
		if err != nil {
			return nil, fmt.Errorf("invalid stored customer %d: %w", customer.ID, err)
		}
		customer.Currency = cur
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// CreateCustomer inserts a new customer and returns it with its assigned id.
func (s *SQLStore) CreateCustomer(ctx context.Context, currency models.Currency) (models.Customer, error) {
	if !currency.Valid() {
		return models.Customer{}, fmt.Errorf("unknown currency %q", currency)
	}

	var id int64
	if s.driver == DriverPostgres {
		query := rebind(s.driver, "INSERT INTO customers (currency) VALUES (?) RETURNING id")
		if err := s.db.QueryRowContext(ctx, query, currency.String()).Scan(&id); err != nil {
			return models.Customer{}, fmt.Errorf("failed to create customer: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx, "INSERT INTO customers (currency) VALUES (?)", currency.String())
		if err != nil {
			return models.Customer{}, fmt.Errorf("failed to create customer: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return models.Customer{}, fmt.Errorf("failed to read new customer id: %w", err)
		}
	}

	return models.Customer{ID: id, Currency: currency}, nil
}
