// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"time"

	"github.com/andes-io/riverwatch/internal/models"
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error

	// Repository accessors
	Rivers() RiverRepository
	Sensors() SensorRepository
	Readings() ReadingRepository
	Rules() RuleRepository
	Alerts() AlertRepository
	Channels() ChannelRepository
	Notifications() NotificationRepository
}

// RiverRepository defines operations for river management.
type RiverRepository interface {
	Create(ctx context.Context, river *models.River) error
	GetByID(ctx context.Context, id string) (*models.River, error)
	List(ctx context.Context) ([]*models.River, error)
}

// SensorRepository defines operations for sensor management.
type SensorRepository interface {
	Create(ctx context.Context, sensor *models.Sensor) error
	GetByID(ctx context.Context, id string) (*models.Sensor, error)
	GetByCode(ctx context.Context, code string) (*models.Sensor, error)
	Update(ctx context.Context, sensor *models.Sensor) error
	List(ctx context.Context) ([]*models.Sensor, error)
	ListByRiver(ctx context.Context, riverID string) ([]*models.Sensor, error)
}

// ReadingRepository defines operations for sensor readings.
type ReadingRepository interface {
	Create(ctx context.Context, reading *models.SensorReading) error
	GetByID(ctx context.Context, id string) (*models.SensorReading, error)
	ListBySensor(ctx context.Context, sensorID string, limit, offset int) ([]*models.SensorReading, error)
	// Latest returns the most recent reading for a sensor, or nil.
	Latest(ctx context.Context, sensorID string) (*models.SensorReading, error)
	// PreviousReading returns the most recent reading for a sensor strictly
	// older than the given timestamp, or nil if none exists. Used by
	// rapid-change evaluation.
	PreviousReading(ctx context.Context, sensorID string, olderThan time.Time) (*models.SensorReading, error)
}

// RuleRepository defines operations for alert rule management.
type RuleRepository interface {
	Create(ctx context.Context, rule *models.AlertRule) error
	GetByID(ctx context.Context, id string) (*models.AlertRule, error)
	Update(ctx context.Context, rule *models.AlertRule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.AlertRule, error)
	// ListForSensor returns active rules scoped to the sensor plus active
	// globally-scoped rules, ordered by name for determinism.
	ListForSensor(ctx context.Context, sensorID string) ([]*models.AlertRule, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// AlertSummary aggregates alert counts for the dashboard.
type AlertSummary struct {
	TotalAlerts        int64 `json:"total_alerts"`
	ActiveAlerts       int64 `json:"active_alerts"`
	CriticalAlerts     int64 `json:"critical_alerts"`
	WarningAlerts      int64 `json:"warning_alerts"`
	AcknowledgedAlerts int64 `json:"acknowledged_alerts"`
	RecentAlerts24h    int64 `json:"recent_alerts_24h"`
}

// AlertRepository defines operations for alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	Update(ctx context.Context, alert *models.Alert) error
	List(ctx context.Context, limit, offset int) ([]*models.Alert, error)
	ListActive(ctx context.Context) ([]*models.Alert, error)
	// FindActive returns an active alert for the sensor with the given
	// severity whose title contains the given substring, or nil.
	FindActive(ctx context.Context, sensorID string, severity models.Severity, titleContains string) (*models.Alert, error)
	// FindActiveByRule returns an active alert for the sensor with the given
	// severity created by the given rule, or nil.
	FindActiveByRule(ctx context.Context, sensorID string, severity models.Severity, ruleID string) (*models.Alert, error)
	Summary(ctx context.Context, now time.Time) (*AlertSummary, error)
}

// ChannelRepository defines operations for notification channels.
type ChannelRepository interface {
	Create(ctx context.Context, channel *models.NotificationChannel) error
	GetByID(ctx context.Context, id string) (*models.NotificationChannel, error)
	Update(ctx context.Context, channel *models.NotificationChannel) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.NotificationChannel, error)
	ListActive(ctx context.Context) ([]*models.NotificationChannel, error)
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	AlertID   string
	ChannelID string
	Status    models.NotificationStatus
}

// NotificationRepository defines the append-only notification audit trail.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.AlertNotification) error
	List(ctx context.Context, filter NotificationFilter, limit, offset int) ([]*models.AlertNotification, error)
	ListByAlert(ctx context.Context, alertID string) ([]*models.AlertNotification, error)
}
