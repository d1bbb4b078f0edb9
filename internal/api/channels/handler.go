// Package channels handles notification channel CRUD endpoints.
package channels

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

var validTypes = map[models.ChannelType]bool{
	models.ChannelTypeEmail:   true,
	models.ChannelTypeSMS:     true,
	models.ChannelTypeWebhook: true,
	models.ChannelTypePush:    true,
}

// Handler handles notification channel endpoints.
type Handler struct {
	storage storage.Storage
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// ChannelRequest is the create/update payload for a channel.
type ChannelRequest struct {
	Name          string               `json:"name"`
	ChannelType   string               `json:"channel_type"`
	Configuration models.ChannelConfig `json:"configuration"`
	IsActive      *bool                `json:"is_active,omitempty"`
}

func validateChannelRequest(req *ChannelRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if !validTypes[models.ChannelType(req.ChannelType)] {
		return "channel_type must be one of: email, sms, webhook, push"
	}
	switch models.ChannelType(req.ChannelType) {
	case models.ChannelTypeEmail, models.ChannelTypeSMS:
		if len(req.Configuration.Recipients()) == 0 {
			return "configuration.recipients is required"
		}
	case models.ChannelTypeWebhook:
		if req.Configuration.String("url") == "" {
			return "configuration.url is required"
		}
	}
	return ""
}

// List returns all channels.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	channels, err := h.storage.Channels().List(r.Context())
	if err != nil {
		log.Printf("list channels error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to list channels")
		return
	}
	if channels == nil {
		channels = []*models.NotificationChannel{}
	}
	jsonStatus(w, http.StatusOK, channels)
}

// Create stores a new channel.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}
	if msg := validateChannelRequest(&req); msg != "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, msg)
		return
	}

	channel := &models.NotificationChannel{
		ID:            uuid.New().String(),
		Name:          req.Name,
		ChannelType:   models.ChannelType(req.ChannelType),
		Configuration: req.Configuration,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	if req.IsActive != nil {
		channel.IsActive = *req.IsActive
	}

	if err := h.storage.Channels().Create(r.Context(), channel); err != nil {
		log.Printf("create channel error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to create channel")
		return
	}
	jsonStatus(w, http.StatusCreated, channel)
}

// GetByID returns a single channel.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	channel, err := h.storage.Channels().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("get channel error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to load channel")
		return
	}
	if channel == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "channel not found")
		return
	}
	jsonStatus(w, http.StatusOK, channel)
}

// Update replaces a channel's definition.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req ChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}
	if msg := validateChannelRequest(&req); msg != "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, msg)
		return
	}

	channel, err := h.storage.Channels().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("get channel error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to load channel")
		return
	}
	if channel == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "channel not found")
		return
	}

	channel.Name = req.Name
	channel.ChannelType = models.ChannelType(req.ChannelType)
	channel.Configuration = req.Configuration
	if req.IsActive != nil {
		channel.IsActive = *req.IsActive
	}

	if err := h.storage.Channels().Update(r.Context(), channel); err != nil {
		log.Printf("update channel error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to update channel")
		return
	}
	jsonStatus(w, http.StatusOK, channel)
}

// Delete removes a channel. Past notification records are kept.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Channels().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		log.Printf("delete channel error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "failed to delete channel")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
