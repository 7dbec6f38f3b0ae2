package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/unip1801/antaeus/pkg/httputil"
	"github.com/unip1801/antaeus/pkg/models"
)

// CustomerHandlers serves customer reads.
type CustomerHandlers struct {
	customers CustomerReader
}

func NewCustomerHandlers(customers CustomerReader) *CustomerHandlers {
	return &CustomerHandlers{customers: customers}
}

// RegisterRoutes attaches the customer routes to the given router.
func (h *CustomerHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/customers", h.ListCustomers).Methods("GET")
	router.HandleFunc("/customers/{id:[0-9]+}", h.GetCustomer).Methods("GET")
}

func (h *CustomerHandlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.ListCustomers(r.Context())
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid customer id")
		return
	}

	customer, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrCustomerNotFound) {
			httputil.WriteNotFound(w, "customer not found")
			return
		}
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}
