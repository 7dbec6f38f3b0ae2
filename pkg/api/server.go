// Package api exposes the billing system over HTTP. The route table mirrors
// the service's REST contract: invoice and customer reads, on-demand billing
// triggers, and scheduler control.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/unip1801/antaeus/pkg/httputil"
	"github.com/unip1801/antaeus/pkg/models"
	"github.com/unip1801/antaeus/pkg/observability"
)

// BillingService triggers invoice processing on demand.
type BillingService interface {
	HandlePayments(ctx context.Context) ([]models.Invoice, error)
	HandleInvoice(ctx context.Context, id int64) (models.Invoice, error)
}

// SchedulingService controls the recurring billing scheduler.
type SchedulingService interface {
	Start() bool
	Stop() bool
	Status() bool
}

// InvoiceReader is the read/reset slice of the invoice store the REST layer
// needs.
type InvoiceReader interface {
	GetInvoice(ctx context.Context, id int64) (models.Invoice, error)
	ListInvoices(ctx context.Context) ([]models.Invoice, error)
	ListInvoicesByStatuses(ctx context.Context, statuses ...models.InvoiceStatus) ([]models.Invoice, error)
	ResetErrorsToPending(ctx context.Context) (int64, error)
}

// CustomerReader is the read slice of the customer store the REST layer
// needs.
type CustomerReader interface {
	GetCustomer(ctx context.Context, id int64) (models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
}

// Server is the HTTP front door.
type Server struct {
	router  *mux.Router
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewServer wires all route handlers. metrics may be nil.
func NewServer(
	billing BillingService,
	scheduler SchedulingService,
	invoices InvoiceReader,
	customers CustomerReader,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		logger:  logger.WithField("component", "api"),
		metrics: metrics,
	}

	s.router.Use(httputil.RequestIDMiddleware())
	s.router.Use(httputil.RecoveryMiddleware(s.logger))
	s.router.Use(httputil.LoggingMiddleware(s.logger))
	if metrics != nil {
		s.router.Use(httputil.MetricsMiddleware(metrics, routeTemplate))
		s.router.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	s.router.HandleFunc("/rest/health", s.health).Methods("GET")

	v1 := s.router.PathPrefix("/rest/v1").Subrouter()
	NewBillingHandlers(billing).RegisterRoutes(v1)
	NewSchedulingHandlers(scheduler).RegisterRoutes(v1)
	NewInvoiceHandlers(invoices).RegisterRoutes(v1)
	NewCustomerHandlers(customers).RegisterRoutes(v1)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, "ok")
}

// routeTemplate returns the matched route pattern so metric labels stay
// bounded regardless of path parameters.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
