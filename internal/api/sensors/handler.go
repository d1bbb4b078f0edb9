// Package sensors handles river and sensor endpoints.
package sensors

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

// Handler handles river and sensor endpoints.
type Handler struct {
	storage storage.Storage
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// RiverRequest is the create payload for a river.
type RiverRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// ListRivers returns all rivers.
func (h *Handler) ListRivers(w http.ResponseWriter, r *http.Request) {
	rivers, err := h.storage.Rivers().List(r.Context())
	if err != nil {
		log.Printf("list rivers error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to list rivers")
		return
	}
	if rivers == nil {
		rivers = []*models.River{}
	}
	jsonStatus(w, http.StatusOK, rivers)
}

// CreateRiver stores a new river.
func (h *Handler) CreateRiver(w http.ResponseWriter, r *http.Request) {
	var req RiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "name is required")
		return
	}

	now := time.Now().UTC()
	river := &models.River{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.storage.Rivers().Create(r.Context(), river); err != nil {
		log.Printf("create river error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to create river")
		return
	}
	jsonStatus(w, http.StatusCreated, river)
}

// SensorRequest is the create payload for a sensor.
type SensorRequest struct {
	Name              string  `json:"name"`
	SensorCode        string  `json:"sensor_code"`
	RiverID           string  `json:"river_id"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	Status            string  `json:"status"`
	MaxLevel          float64 `json:"max_level"`
	WarningThreshold  float64 `json:"warning_threshold"`
	CriticalThreshold float64 `json:"critical_threshold"`
}

// List returns all sensors.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sensors, err := h.storage.Sensors().List(r.Context())
	if err != nil {
		log.Printf("list sensors error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to list sensors")
		return
	}
	if sensors == nil {
		sensors = []*models.Sensor{}
	}
	jsonStatus(w, http.StatusOK, sensors)
}

// Create stores a new sensor.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req SensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}
	switch {
	case req.Name == "":
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "name is required")
		return
	case req.SensorCode == "":
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "sensor_code is required")
		return
	case req.RiverID == "":
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "river_id is required")
		return
	}

	river, err := h.storage.Rivers().GetByID(r.Context(), req.RiverID)
	if err != nil {
		log.Printf("get river error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to load river")
		return
	}
	if river == nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "river not found")
		return
	}

	status := models.SensorStatus(req.Status)
	if status == "" {
		status = models.SensorStatusActive
	}

	now := time.Now().UTC()
	sensor := &models.Sensor{
		ID:                uuid.New().String(),
		Name:              req.Name,
		SensorCode:        req.SensorCode,
		RiverID:           river.ID,
		RiverName:         river.Name,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		Status:            status,
		InstallationDate:  now,
		MaxLevel:          req.MaxLevel,
		WarningThreshold:  req.WarningThreshold,
		CriticalThreshold: req.CriticalThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := h.storage.Sensors().Create(r.Context(), sensor); err != nil {
		log.Printf("create sensor error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to create sensor")
		return
	}
	jsonStatus(w, http.StatusCreated, sensor)
}

// GetByID returns a single sensor.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	sensor, err := h.storage.Sensors().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("get sensor error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to load sensor")
		return
	}
	if sensor == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "sensor not found")
		return
	}
	jsonStatus(w, http.StatusOK, sensor)
}
