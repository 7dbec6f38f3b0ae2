package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unip1801/antaeus/pkg/models"
	"github.com/unip1801/antaeus/pkg/observability"
)

type fakeBilling struct {
	handlePaymentsFn func(ctx context.Context) ([]models.Invoice, error)
	handleInvoiceFn  func(ctx context.Context, id int64) (models.Invoice, error)
}

func (f *fakeBilling) HandlePayments(ctx context.Context) ([]models.Invoice, error) {
	return f.handlePaymentsFn(ctx)
}

func (f *fakeBilling) HandleInvoice(ctx context.Context, id int64) (models.Invoice, error) {
	return f.handleInvoiceFn(ctx, id)
}

type fakeScheduler struct {
	startFn  func() bool
	stopFn   func() bool
	statusFn func() bool
}

func (f *fakeScheduler) Start() bool  { return f.startFn() }
func (f *fakeScheduler) Stop() bool   { return f.stopFn() }
func (f *fakeScheduler) Status() bool { return f.statusFn() }

type fakeInvoiceReader struct {
	getFn          func(ctx context.Context, id int64) (models.Invoice, error)
	listFn         func(ctx context.Context) ([]models.Invoice, error)
	listByStatusFn func(ctx context.Context, statuses ...models.InvoiceStatus) ([]models.Invoice, error)
	resetErrorsFn  func(ctx context.Context) (int64, error)
}

func (f *fakeInvoiceReader) GetInvoice(ctx context.Context, id int64) (models.Invoice, error) {
	return f.getFn(ctx, id)
}

func (f *fakeInvoiceReader) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	return f.listFn(ctx)
}

func (f *fakeInvoiceReader) ListInvoicesByStatuses(ctx context.Context, statuses ...models.InvoiceStatus) ([]models.Invoice, error) {
	return f.listByStatusFn(ctx, statuses...)
}

func (f *fakeInvoiceReader) ResetErrorsToPending(ctx context.Context) (int64, error) {
	return f.resetErrorsFn(ctx)
}

type fakeCustomerReader struct {
	getFn  func(ctx context.Context, id int64) (models.Customer, error)
	listFn func(ctx context.Context) ([]models.Customer, error)
}

func (f *fakeCustomerReader) GetCustomer(ctx context.Context, id int64) (models.Customer, error) {
	return f.getFn(ctx, id)
}

func (f *fakeCustomerReader) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return f.listFn(ctx)
}

type serverFakes struct {
	billing   *fakeBilling
	scheduler *fakeScheduler
	invoices  *fakeInvoiceReader
	customers *fakeCustomerReader
}

func newTestServer(t *testing.T) (*Server, *serverFakes) {
	t.Helper()

	fakes := &serverFakes{
		billing:   &fakeBilling{},
		scheduler: &fakeScheduler{},
		invoices:  &fakeInvoiceReader{},
		customers: &fakeCustomerReader{},
	}
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	srv := NewServer(fakes.billing, fakes.scheduler, fakes.invoices, fakes.customers, logger, observability.NewMetrics(nil))
	return srv, fakes
}

func testInvoice(id int64) models.Invoice {
	return models.Invoice{
		ID:         id,
		CustomerID: 7,
		Amount:     models.Money{Amount: decimal.RequireFromString("120.50"), Currency: models.USD},
		Status:     models.StatusPending,
	}
}

func doRequest(srv *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/rest/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"ok"`, rec.Body.String())
}

func TestPayAllInvoices(t *testing.T) {
	srv, fakes := newTestServer(t)
	fakes.billing.handlePaymentsFn = func(ctx context.Context) ([]models.Invoice, error) {
		return []models.Invoice{testInvoice(1).WithStatus(models.StatusPaid)}, nil
	}

	rec := doRequest(srv, http.MethodPost, "/rest/v1/billingservice/payallinvoices")

	require.Equal(t, http.StatusOK, rec.Code)
	var invoices []models.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
	require.Len(t, invoices, 1)
	assert.Equal(t, models.StatusPaid, invoices[0].Status)
}

func TestPayAllInvoicesFailure(t *testing.T) {
	srv, fakes := newTestServer(t)
	fakes.billing.handlePaymentsFn = func(ctx context.Context) ([]models.Invoice, error) {
		return nil, errors.New("store offline")
	}

	rec := doRequest(srv, http.MethodPost, "/rest/v1/billingservice/payallinvoices")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPayInvoice(t *testing.T) {
	srv, fakes := newTestServer(t)
	var gotID int64
	fakes.billing.handleInvoiceFn = func(ctx context.Context, id int64) (models.Invoice, error) {
		gotID = id
		return testInvoice(id).WithStatus(models.StatusPaid), nil
	}

	rec := doRequest(srv, http.MethodPost, "/rest/v1/billingservice/payinvoice/42")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotID)
}

func TestPayInvoiceNotFound(t *testing.T) {
	srv, fakes := newTestServer(t)
	fakes.billing.handleInvoiceFn = func(ctx context.Context, id int64) (models.Invoice, error) {
		return models.Invoice{}, models.ErrInvoiceNotFound
	}

	rec := doRequest(srv, http.MethodPost, "/rest/v1/billingservice/payinvoice/999")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPayInvoiceRejectsNonNumericID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/rest/v1/billingservice/payinvoice/abc")

	// The route pattern only matches numeric ids.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSchedulerRoutes(t *testing.T) {
	srv, fakes := newTestServer(t)
	running := false
	fakes.scheduler.startFn = func() bool { running = true; return true }
	fakes.scheduler.stopFn = func() bool { running = false; return true }
	fakes.scheduler.statusFn = func() bool { return running }

	rec := doRequest(srv, http.MethodPost, "/rest/v1/schedulingservice/start")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"started": true, "running": true}`, rec.Body.String())

	rec = doRequest(srv, http.MethodGet, "/rest/v1/schedulingservice/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"running": true}`, rec.Body.String())

	rec = doRequest(srv, http.MethodPost, "/rest/v1/schedulingservice/stop")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stopped": true, "running": false}`, rec.Body.String())
}

func TestListInvoices(t *testing.T) {
	srv, fakes := newTestServer(t)
	fakes.invoices.listFn = func(ctx context.Context) ([]models.Invoice, error) {
		return []models.Invoice{testInvoice(1), testInvoice(2)}, nil
	}

	rec := doRequest(srv, http.MethodGet, "/rest/v1/invoices")

	require.Equal(t, http.StatusOK, rec.Code)
	var invoices []models.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
	assert.Len(t, invoices, 2)
}

func TestListInvoicesByStatus(t *testing.T) {
	srv, fakes := newTestServer(t)
	var gotStatuses []models.InvoiceStatus
	fakes.invoices.listByStatusFn = func(ctx context.Context, statuses ...models.InvoiceStatus) ([]models.Invoice, error) {
		gotStatuses = statuses
		return nil, nil
	}

	rec := doRequest(srv, http.MethodGet, "/rest/v1/invoices/status/PENDING")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.InvoiceStatus{models.StatusPending}, gotStatuses)
}

func TestListInvoicesByUnknownStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/rest/v1/invoices/status/BOGUS")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetInvoice(t *testing.T) {
	srv, fakes := newTestServer(t)
	fakes.invoices.getFn = func(ctx context.Context, id int64) (models.Invoice, error) {
		return testInvoice(id), nil
	}

	rec := doRequest(srv, http.MethodGet, "/rest/v1/invoices/5")

	require.Equal(t, http.StatusOK, rec.Code)
	var invoice models.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoice))
	assert.Equal(t, int64(5), invoice.ID)
}

func TestGetInvoiceNotFound(t *testing.T) {
	srv, fakes := newTestServer(t)
	fakes.invoices.getFn = func(ctx context.Context, id int64) (models.Invoice, error) {
		return models.Invoice{}, models.ErrInvoiceNotFound
	}

	rec := doRequest(srv, http.MethodGet, "/rest/v1/invoices/5")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetErrors(t *testing.T) {
	srv, fakes := newTestServer(t)
	fakes.invoices.resetErrorsFn = func(ctx context.Context) (int64, error) {
		return 3, nil
	}

	rec := doRequest(srv, http.MethodPost, "/rest/v1/invoices/reseterrors")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reset": 3}`, rec.Body.String())
}

func TestListCustomers(t *testing.T) {
	srv, fakes := newTestServer(t)
	fakes.customers.listFn = func(ctx context.Context) ([]models.Customer, error) {
		return []models.Customer{{ID: 1, Currency: models.DKK}}, nil
	}

	rec := doRequest(srv, http.MethodGet, "/rest/v1/customers")

	require.Equal(t, http.StatusOK, rec.Code)
	var customers []models.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &customers))
	require.Len(t, customers, 1)
	assert.Equal(t, models.DKK, customers[0].Currency)
}

func TestGetCustomerNotFound(t *testing.T) {
	srv, fakes := newTestServer(t)
	fakes.customers.getFn = func(ctx context.Context, id int64) (models.Customer, error) {
		return models.Customer{}, models.ErrCustomerNotFound
	}

	rec := doRequest(srv, http.MethodGet, "/rest/v1/customers/1")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeaderPropagates(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/rest/health")

	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
