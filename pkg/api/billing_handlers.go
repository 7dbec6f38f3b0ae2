package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/unip1801/antaeus/pkg/httputil"
	"github.com/unip1801/antaeus/pkg/models"
)

// BillingHandlers serves on-demand billing triggers.
type BillingHandlers struct {
	billing BillingService
}

func NewBillingHandlers(billing BillingService) *BillingHandlers {
	return &BillingHandlers{billing: billing}
}

// RegisterRoutes attaches the billing routes to the given router.
func (h *BillingHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/billingservice/payallinvoices", h.PayAllInvoices).Methods("POST")
	router.HandleFunc("/billingservice/payinvoice/{id:[0-9]+}", h.PayInvoice).Methods("POST")
}

// PayAllInvoices runs a full billing pass and returns every invoice it
// touched.
func (h *BillingHandlers) PayAllInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.billing.HandlePayments(r.Context())
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invoices)
}

// PayInvoice processes a single invoice by id.
func (h *BillingHandlers) PayInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid invoice id")
		return
	}

	invoice, err := h.billing.HandleInvoice(r.Context(), id)
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
