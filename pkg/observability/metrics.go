package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Billing pass metrics
	BillingPassesTotal       prometheus.Counter
	BillingPassDuration      prometheus.Histogram
	InvoicesProcessedTotal   *prometheus.CounterVec
	NetworkRetriesTotal      prometheus.Counter
	CurrencyAdjustmentsTotal prometheus.Counter

	// Payment gateway metrics
	ChargeDuration *prometheus.HistogramVec

	// Scheduler metrics
	SchedulerRunning prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "antaeus_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "antaeus_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		BillingPassesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "antaeus_billing_passes_total",
				Help: "Total number of completed billing passes",
			},
		),
		BillingPassDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "antaeus_billing_pass_duration_seconds",
				Help:    "Billing pass duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		InvoicesProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "antaeus_invoices_processed_total",
				Help: "Invoices processed, labeled by resulting status",
			},
			[]string{"status"},
		),
		NetworkRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "antaeus_network_retries_total",
				Help: "Invoices that hit a transient network error and were retried",
			},
		),
		CurrencyAdjustmentsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "antaeus_currency_adjustments_total",
				Help: "Invoices converted to the customer's currency before charging",
			},
		),
		ChargeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "antaeus_charge_duration_seconds",
				Help:    "Payment gateway charge duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		SchedulerRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "antaeus_scheduler_running",
				Help: "Whether the recurring billing scheduler is running (1) or stopped (0)",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BillingPassesTotal,
		m.BillingPassDuration,
		m.InvoicesProcessedTotal,
		m.NetworkRetriesTotal,
		m.CurrencyAdjustmentsTotal,
		m.ChargeDuration,
		m.SchedulerRunning,
	)

	return m
}

// Handler returns an HTTP handler exposing the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records a completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveCharge records a single payment gateway call.
func (m *Metrics) ObserveCharge(outcome string, duration time.Duration) {
	m.ChargeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
