// Package rules handles alert rule CRUD endpoints.
package rules

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeInternalError    = "INTERNAL_ERROR"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// Handler handles alert rule endpoints.
type Handler struct {
	storage storage.Storage
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// RuleRequest is the create/update payload for an alert rule.
type RuleRequest struct {
	Name           string  `json:"name"`
	SensorID       string  `json:"sensor_id"` // empty applies to all sensors
	Metric         string  `json:"metric"`
	Condition      string  `json:"condition"`
	ThresholdValue float64 `json:"threshold_value"`
	Severity       string  `json:"severity"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// List returns all rules.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.storage.Rules().List(r.Context())
	if err != nil {
		log.Printf("list rules error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to list rules")
		return
	}
	if rules == nil {
		rules = []*models.AlertRule{}
	}
	jsonStatus(w, http.StatusOK, rules)
}

// Create stores a new rule.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}
	if msg := validateRuleRequest(&req); msg != "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, msg)
		return
	}

	now := time.Now().UTC()
	rule := &models.AlertRule{
		ID:             uuid.New().String(),
		Name:           req.Name,
		SensorID:       req.SensorID,
		Metric:         models.Metric(req.Metric),
		Condition:      models.RuleCondition(req.Condition),
		ThresholdValue: req.ThresholdValue,
		Severity:       models.Severity(req.Severity),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.storage.Rules().Create(r.Context(), rule); err != nil {
		log.Printf("create rule error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to create rule")
		return
	}
	jsonStatus(w, http.StatusCreated, rule)
}

// GetByID returns a single rule.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	rule, err := h.storage.Rules().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("get rule error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to load rule")
		return
	}
	if rule == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "rule not found")
		return
	}
	jsonStatus(w, http.StatusOK, rule)
}

// Update replaces a rule's definition.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}
	if msg := validateRuleRequest(&req); msg != "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, msg)
		return
	}

	rule, err := h.storage.Rules().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("get rule error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to load rule")
		return
	}
	if rule == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "rule not found")
		return
	}

	rule.Name = req.Name
	rule.SensorID = req.SensorID
	rule.Metric = models.Metric(req.Metric)
	rule.Condition = models.RuleCondition(req.Condition)
	rule.ThresholdValue = req.ThresholdValue
	rule.Severity = models.Severity(req.Severity)
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	rule.UpdatedAt = time.Now().UTC()

	if err := h.storage.Rules().Update(r.Context(), rule); err != nil {
		log.Printf("update rule error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to update rule")
		return
	}
	jsonStatus(w, http.StatusOK, rule)
}

// Delete removes a rule. Alerts created by the rule are kept.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Rules().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		log.Printf("delete rule error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to delete rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
