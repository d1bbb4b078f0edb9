// Package alerts handles alert listing and lifecycle endpoints.
package alerts

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andes-io/riverwatch/internal/models"
	"github.com/andes-io/riverwatch/internal/storage"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeNotFound      = "NOT_FOUND"
	errCodeConflict      = "CONFLICT"
	errCodeInternalError = "INTERNAL_ERROR"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// Handler handles alert endpoints.
type Handler struct {
	storage storage.Storage
	now     func() time.Time
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store, now: time.Now}
}

// List returns alerts, newest first, with limit/offset paging.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	alerts, err := h.storage.Alerts().List(r.Context(), limit, offset)
	if err != nil {
		log.Printf("list alerts error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to list alerts")
		return
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	jsonOK(w, alerts)
}

// ListActive returns all alerts still in the active state.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.storage.Alerts().ListActive(r.Context())
	if err != nil {
		log.Printf("list active alerts error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to list active alerts")
		return
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	jsonOK(w, alerts)
}

// Summary returns aggregated alert counts for the dashboard.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.storage.Alerts().Summary(r.Context(), h.now())
	if err != nil {
		log.Printf("alert summary error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to build alert summary")
		return
	}
	jsonOK(w, summary)
}

// GetByID returns a single alert.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	alert, err := h.storage.Alerts().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("get alert error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to load alert")
		return
	}
	if alert == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "alert not found")
		return
	}
	jsonOK(w, alert)
}

// actorRequest carries the operator name for lifecycle transitions. Auth is
// out of scope, so the actor is self-reported.
type actorRequest struct {
	By string `json:"by"`
}

// Acknowledge transitions an active alert to acknowledged.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(alert *models.Alert, by string) error {
		return alert.Acknowledge(by, h.now().UTC())
	})
}

// Resolve transitions an alert to resolved.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(alert *models.Alert, by string) error {
		return alert.Resolve(by, h.now().UTC())
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(*models.Alert, string) error) {
	var req actorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}
	if req.By == "" {
		req.By = "system"
	}

	alert, err := h.storage.Alerts().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("get alert error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to load alert")
		return
	}
	if alert == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "alert not found")
		return
	}

	if err := apply(alert, req.By); err != nil {
		jsonError(w, http.StatusConflict, errCodeConflict, err.Error())
		return
	}

	if err := h.storage.Alerts().Update(r.Context(), alert); err != nil {
		log.Printf("update alert error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to update alert")
		return
	}
	jsonOK(w, alert)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
