package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/unip1801/antaeus/pkg/httputil"
)

// SchedulingHandlers exposes scheduler control over REST.
type SchedulingHandlers struct {
	scheduler SchedulingService
}

func NewSchedulingHandlers(scheduler SchedulingService) *SchedulingHandlers {
	return &SchedulingHandlers{scheduler: scheduler}
}

// RegisterRoutes attaches the scheduling routes to the given router.
func (h *SchedulingHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/schedulingservice/start", h.Start).Methods("POST")
	router.HandleFunc("/schedulingservice/stop", h.Stop).Methods("POST")
	router.HandleFunc("/schedulingservice/status", h.Status).Methods("GET")
}

type schedulerState struct {
	Running bool `json:"running"`
}

// Start launches the scheduler. The response reports whether this call
// actually started it.
func (h *SchedulingHandlers) Start(w http.ResponseWriter, r *http.Request) {
	started := h.scheduler.Start()
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"started": started, "running": h.scheduler.Status()})
}

// Stop halts the scheduler, waiting for any in-flight pass to finish.
func (h *SchedulingHandlers) Stop(w http.ResponseWriter, r *http.Request) {
	stopped := h.scheduler.Stop()
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"stopped": stopped, "running": h.scheduler.Status()})
}

// Status reports whether the scheduler loop is running.
func (h *SchedulingHandlers) Status(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, schedulerState{Running: h.scheduler.Status()})
}
