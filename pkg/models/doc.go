// Package models defines the domain types shared across the billing system:
// invoices, customers, monetary amounts and the closed currency and status
// enumerations.
package models
