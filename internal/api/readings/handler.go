// Package readings handles sensor reading ingestion endpoints.
package readings

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
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

// Engine evaluates a persisted reading against the sensor's alert rules.
type Engine interface {
	EvaluateReading(ctx context.Context, sensor *models.Sensor, reading *models.SensorReading) ([]*models.Alert, error)
}

// Handler handles reading ingestion and listing.
type Handler struct {
	storage storage.Storage
	engine  Engine
}

func NewHandler(store storage.Storage, eng Engine) *Handler {
	return &Handler{storage: store, engine: eng}
}

// IngestRequest is a new sensor reading.
type IngestRequest struct {
	SensorID       string     `json:"sensor_id"`
	WaterLevel     float64    `json:"water_level"`
	Temperature    float64    `json:"temperature"`
	FlowRate       float64    `json:"flow_rate"`
	BatteryLevel   float64    `json:"battery_level"`
	SignalStrength int        `json:"signal_strength"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
}

// IngestResponse returns the stored reading plus any alerts it raised.
type IngestResponse struct {
	Reading *models.SensorReading `json:"reading"`
	Alerts  []*models.Alert       `json:"alerts"`
}

// Ingest stores a reading and evaluates alert rules for it inline.
// An engine failure is reported as a 500 so the caller can resubmit.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}
	if req.SensorID == "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "sensor_id is required")
		return
	}

	sensor, err := h.storage.Sensors().GetByID(r.Context(), req.SensorID)
	if err != nil {
		log.Printf("get sensor error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to load sensor")
		return
	}
	if sensor == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "sensor not found")
		return
	}

	reading := &models.SensorReading{
		ID:             uuid.New().String(),
		SensorID:       sensor.ID,
		WaterLevel:     req.WaterLevel,
		Temperature:    req.Temperature,
		FlowRate:       req.FlowRate,
		BatteryLevel:   req.BatteryLevel,
		SignalStrength: req.SignalStrength,
		Timestamp:      time.Now().UTC(),
	}
	if req.Timestamp != nil {
		reading.Timestamp = req.Timestamp.UTC()
	}

	if err := h.storage.Readings().Create(r.Context(), reading); err != nil {
		log.Printf("create reading error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to store reading")
		return
	}

	alerts, err := h.engine.EvaluateReading(r.Context(), sensor, reading)
	if err != nil {
		log.Printf("evaluate reading error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to evaluate reading")
		return
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}

	jsonStatus(w, http.StatusCreated, IngestResponse{Reading: reading, Alerts: alerts})
}

// ListBySensor returns recent readings for a sensor, newest first.
func (h *Handler) ListBySensor(w http.ResponseWriter, r *http.Request) {
	sensorID := chi.URLParam(r, "id")

	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	readings, err := h.storage.Readings().ListBySensor(r.Context(), sensorID, limit, offset)
	if err != nil {
		log.Printf("list readings error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to list readings")
		return
	}
	if readings == nil {
		readings = []*models.SensorReading{}
	}
	jsonStatus(w, http.StatusOK, readings)
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
