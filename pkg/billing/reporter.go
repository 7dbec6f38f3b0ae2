package billing

import (
	"sync"

	"github.com/unip1801/antaeus/pkg/models"
)

// Reporter accumulates the outcome of a single billing pass: one bucket per
// invoice status plus counters for network retries and currency adjustments.
// It is reset at the start of every pass and its summary is logged at the
// end; nothing in it is persisted.
type Reporter struct {
	mu sync.Mutex

	buckets             map[models.InvoiceStatus][]models.Invoice
	networkRetries      int
	currencyAdjustments int
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	r := &Reporter{}
	r.Reset()
	return r
}

// Reset clears all buckets and counters.
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buckets = make(map[models.InvoiceStatus][]models.Invoice, 5)
	r.networkRetries = 0
	r.currencyAdjustments = 0
}

// Record appends the invoice to the bucket matching its status.
func (r *Reporter) Record(invoice models.Invoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buckets[invoice.Status] = append(r.buckets[invoice.Status], invoice)
}

// NoteNetworkRetry counts one transient network failure scheduled for retry.
func (r *Reporter) NoteNetworkRetry() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.networkRetries++
}

// NoteCurrencyAdjustment counts one invoice converted to its customer's
// currency before charging.
func (r *Reporter) NoteCurrencyAdjustment() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currencyAdjustments++
}

// Summary is a point-in-time snapshot of a pass.
type Summary struct {
	Pending             int `json:"pending"`
	Paid                int `json:"paid"`
	NetworkErrors       int `json:"network_errors"`
	MissingFunds        int `json:"missing_funds"`
	Errors              int `json:"errors"`
	NetworkRetries      int `json:"network_retries"`
	CurrencyAdjustments int `json:"currency_adjustments"`
}

// Total returns the number of recorded invoice outcomes. Invoices retried in
// the same pass are counted once per recorded outcome.
func (s Summary) Total() int {
	return s.Pending + s.Paid + s.NetworkErrors + s.MissingFunds + s.Errors
}

// Summary snapshots the current buckets and counters.
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		Pending:             len(r.buckets[models.StatusPending]),
		Paid:                len(r.buckets[models.StatusPaid]),
		NetworkErrors:       len(r.buckets[models.StatusNetworkError]),
		MissingFunds:        len(r.buckets[models.StatusMissingFunds]),
		Errors:              len(r.buckets[models.StatusError]),
		NetworkRetries:      r.networkRetries,
		CurrencyAdjustments: r.currencyAdjustments,
	}
}
