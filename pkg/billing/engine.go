package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/unip1801/antaeus/pkg/currency"
	"github.com/unip1801/antaeus/pkg/models"
	"github.com/unip1801/antaeus/pkg/observability"
	"github.com/unip1801/antaeus/pkg/payment"
)

// InvoiceStore is the slice of the storage layer the engine needs.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id int64) (models.Invoice, error)
	ListInvoicesByStatuses(ctx context.Context, statuses ...models.InvoiceStatus) ([]models.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice models.Invoice) error
}

// CustomerStore is the slice of the storage layer the engine needs for
// customer lookups.
type CustomerStore interface {
	GetCustomer(ctx context.Context, id int64) (models.Customer, error)
}

const defaultCustomerCacheSize = 256

// Engine owns the per-invoice state transitions and the two-sweep retry
// protocol of a billing pass.
//
// A single mutex serializes HandlePayments and HandleInvoice: the background
// scheduler and ad-hoc REST triggers share the same invoice set, and only
// one of them may be charging at any instant. Callers block on the lock
// rather than fail.
type Engine struct {
	invoices  InvoiceStore
	customers CustomerStore
	gateway   payment.Gateway
	converter *currency.Converter
	reporter  *Reporter
	logger    *observability.Logger
	metrics   *observability.Metrics

	// Whether ERROR invoices re-enter passes automatically, or wait for the
	// manual reset-to-pending action.
	retryErrorInvoices bool

	mu sync.Mutex

	// Customers are read-only during a pass, so lookups are cached per pass.
	customerCache *lru.Cache[int64, models.Customer]
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithRetryErrorInvoices controls whether ERROR invoices are included in the
// eligible set of a pass. Default true.
func WithRetryErrorInvoices(retry bool) EngineOption {
	return func(e *Engine) { e.retryErrorInvoices = retry }
}

// WithMetrics attaches Prometheus metrics to the engine.
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates a billing engine.
func NewEngine(
	invoices InvoiceStore,
	customers CustomerStore,
	gateway payment.Gateway,
	converter *currency.Converter,
	reporter *Reporter,
	logger *observability.Logger,
	opts ...EngineOption,
) *Engine {
	cache, err := lru.New[int64, models.Customer](defaultCustomerCacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}

	e := &Engine{
		invoices:           invoices,
		customers:          customers,
		gateway:            gateway,
		converter:          converter,
		reporter:           reporter,
		logger:             logger.WithField("component", "billing-engine"),
		retryErrorInvoices: true,
		customerCache:      cache,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandlePayments runs one full billing pass: fetch the eligible invoices,
// process each one, retry the transient network failures exactly once, and
// report. It returns every invoice touched, in processing order.
func (e *Engine) HandlePayments(ctx context.Context) ([]models.Invoice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	e.reporter.Reset()
	e.customerCache.Purge()

	statuses := []models.InvoiceStatus{models.StatusPending, models.StatusNetworkError}
	if e.retryErrorInvoices {
		statuses = append(statuses, models.StatusError)
	}

	eligible, err := e.invoices.ListInvoicesByStatuses(ctx, statuses...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch eligible invoices: %w", err)
	}
	e.logger.WithField("count", len(eligible)).Info("starting billing pass")

	touched := make([]models.Invoice, 0, len(eligible))
	var retrySet []models.Invoice

	for _, invoice := range eligible {
		result := e.processAndLog(ctx, invoice)
		if result.Status == models.StatusNetworkError {
			retrySet = append(retrySet, result)
			e.reporter.NoteNetworkRetry()
		}
		e.reporter.Record(result)
		touched = append(touched, result)
	}

	e.logger.WithField("retry_count", len(retrySet)).Info("first sweep finished, retrying network failures")

	// Second sweep: one extra attempt for each transient failure, and no
	// more. Whatever is still failing stays NETWORK_ERROR for the next pass.
	for _, invoice := range retrySet {
		result := e.processAndLog(ctx, invoice)
		e.reporter.Record(result)
		touched = append(touched, result)
	}

	summary := e.reporter.Summary()
	e.logger.WithFields(map[string]interface{}{
		"handled":              summary.Total(),
		"paid":                 summary.Paid,
		"network_errors":       summary.NetworkErrors,
		"network_retries":      summary.NetworkRetries,
		"missing_funds":        summary.MissingFunds,
		"errors":               summary.Errors,
		"currency_adjustments": summary.CurrencyAdjustments,
		"duration":             time.Since(start).String(),
	}).Info("billing pass finished")

	e.observePass(summary, time.Since(start))

	return touched, nil
}

// HandleInvoice processes a single invoice on demand, under the same lock as
// a full pass. There is no retry sweep on this path.
func (e *Engine) HandleInvoice(ctx context.Context, id int64) (models.Invoice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	invoice, err := e.invoices.GetInvoice(ctx, id)
	if err != nil {
		return models.Invoice{}, err
	}

	e.logger.WithField("invoice_id", id).Info("handling single invoice")
	return e.processInvoice(ctx, invoice)
}

func (e *Engine) processAndLog(ctx context.Context, invoice models.Invoice) models.Invoice {
	result, err := e.processInvoice(ctx, invoice)
	if err != nil {
		// A pass outlives store hiccups on individual invoices; the invoice
		// keeps its classified status in the returned copy and the error is
		// surfaced in the log.
		e.logger.WithError(err).WithField("invoice_id", invoice.ID).Error("failed to persist invoice outcome")
	}
	return result
}

// processInvoice is the per-invoice transition function. Gateway failures
// are mapped to statuses and never escape; the returned error reports
// persistence problems only.
func (e *Engine) processInvoice(ctx context.Context, invoice models.Invoice) (models.Invoice, error) {
	log := e.logger.WithFields(map[string]interface{}{
		"invoice_id":  invoice.ID,
		"customer_id": invoice.CustomerID,
	})

	// Paid is terminal. No gateway call, no store write.
	if invoice.Status == models.StatusPaid {
		log.Debug("invoice already paid, skipping")
		return invoice, nil
	}

	customer, err := e.customer(ctx, invoice.CustomerID)
	if err != nil {
		log.WithError(err).Warn("customer lookup failed, flagging invoice for manual handling")
		return e.persist(ctx, invoice.WithStatus(models.StatusError))
	}

	if customer.Currency != invoice.Amount.Currency {
		log.Debugf("converting invoice from %s to customer currency %s", invoice.Amount.Currency, customer.Currency)
		invoice = e.converter.ConvertInvoice(invoice, customer.Currency)
		e.reporter.NoteCurrencyAdjustment()
	}

	status := e.charge(ctx, invoice)
	log.WithField("status", status.String()).Debug("invoice classified")

	return e.persist(ctx, invoice.WithStatus(status))
}

// charge calls the gateway exactly once and maps the outcome to a status.
func (e *Engine) charge(ctx context.Context, invoice models.Invoice) models.InvoiceStatus {
	start := time.Now()
	charged, err := e.gateway.Charge(ctx, invoice)

	var status models.InvoiceStatus
	var outcome string
	switch {
	case err == nil && charged:
		status, outcome = models.StatusPaid, "success"
	case err == nil:
		status, outcome = models.StatusMissingFunds, "declined"
	case errors.Is(err, payment.ErrNetwork):
		status, outcome = models.StatusNetworkError, "network_error"
	case errors.Is(err, payment.ErrCurrencyMismatch):
		// Should not happen after the conversion above; flag for a human.
		status, outcome = models.StatusError, "currency_mismatch"
	case errors.Is(err, payment.ErrCustomerNotFound):
		status, outcome = models.StatusError, "customer_not_found"
	default:
		e.logger.WithError(err).WithField("invoice_id", invoice.ID).Error("unexpected gateway failure")
		status, outcome = models.StatusError, "unexpected"
	}

	if e.metrics != nil {
		e.metrics.ObserveCharge(outcome, time.Since(start))
	}
	return status
}

func (e *Engine) persist(ctx context.Context, invoice models.Invoice) (models.Invoice, error) {
	if err := e.invoices.UpdateInvoice(ctx, invoice); err != nil {
		return invoice, fmt.Errorf("failed to update invoice %d: %w", invoice.ID, err)
	}
	return invoice, nil
}

func (e *Engine) customer(ctx context.Context, id int64) (models.Customer, error) {
	if customer, ok := e.customerCache.Get(id); ok {
		return customer, nil
	}
	customer, err := e.customers.GetCustomer(ctx, id)
	if err != nil {
		return models.Customer{}, err
	}
	e.customerCache.Add(id, customer)
	return customer, nil
}

func (e *Engine) observePass(summary Summary, duration time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.BillingPassesTotal.Inc()
	e.metrics.BillingPassDuration.Observe(duration.Seconds())
	e.metrics.InvoicesProcessedTotal.WithLabelValues(models.StatusPending.String()).Add(float64(summary.Pending))
	e.metrics.InvoicesProcessedTotal.WithLabelValues(models.StatusPaid.String()).Add(float64(summary.Paid))
	e.metrics.InvoicesProcessedTotal.WithLabelValues(models.StatusNetworkError.String()).Add(float64(summary.NetworkErrors))
	e.metrics.InvoicesProcessedTotal.WithLabelValues(models.StatusMissingFunds.String()).Add(float64(summary.MissingFunds))
	e.metrics.InvoicesProcessedTotal.WithLabelValues(models.StatusError.String()).Add(float64(summary.Errors))
	e.metrics.NetworkRetriesTotal.Add(float64(summary.NetworkRetries))
	e.metrics.CurrencyAdjustmentsTotal.Add(float64(summary.CurrencyAdjustments))
}
