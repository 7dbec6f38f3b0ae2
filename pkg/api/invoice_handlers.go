package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/unip1801/antaeus/pkg/httputil"
	"github.com/unip1801/antaeus/pkg/models"
)

// InvoiceHandlers serves invoice reads and the error-reset operation.
type InvoiceHandlers struct {
	invoices InvoiceReader
}

func NewInvoiceHandlers(invoices InvoiceReader) *InvoiceHandlers {
	return &InvoiceHandlers{invoices: invoices}
}

// RegisterRoutes attaches the invoice routes to the given router.
func (h *InvoiceHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/invoices", h.ListInvoices).Methods("GET")
	router.HandleFunc("/invoices/reseterrors", h.ResetErrors).Methods("POST")
	router.HandleFunc("/invoices/status/{status}", h.ListInvoicesByStatus).Methods("GET")
	router.HandleFunc("/invoices/{id:[0-9]+}", h.GetInvoice).Methods("GET")
}

func (h *InvoiceHandlers) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.invoices.ListInvoices(r.Context())
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandlers) ListInvoicesByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := models.ParseInvoiceStatus(mux.Vars(r)["status"])
	if err != nil {
		httputil.WriteBadRequest(w, "unknown invoice status")
		return
	}

	invoices, err := h.invoices.ListInvoicesByStatuses(r.Context(), status)
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandlers) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid invoice id")
		return
	}

	invoice, err := h.invoices.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrInvoiceNotFound) {
			httputil.WriteNotFound(w, "invoice not found")
			return
		}
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invoice)
}

// ResetErrors flips every ERROR invoice back to PENDING so the next pass
// picks them up.
func (h *InvoiceHandlers) ResetErrors(w http.ResponseWriter, r *http.Request) {
	reset, err := h.invoices.ResetErrorsToPending(r.Context())
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"reset": reset})
}
