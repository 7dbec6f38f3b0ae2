// Package observability provides structured JSON logging and Prometheus
// metrics for the billing service.
package observability
