package models

import (
	"fmt"
	"time"
)

// AlertStatus represents the lifecycle state of an alert.
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// Alert is a triggered condition awaiting operator attention.
// Lifecycle: active -> acknowledged -> resolved, or active -> resolved
// directly. No transition leaves resolved.
type Alert struct {
	ID             string      `json:"id"`
	SensorID       string      `json:"sensor_id"`
	ReadingID      string      `json:"reading_id,omitempty"`
	RuleID         string      `json:"rule_id,omitempty"`
	Severity       Severity    `json:"severity"`
	Status         AlertStatus `json:"status"`
	Title          string      `json:"title"`
	Message        string      `json:"message"`
	CreatedAt      time.Time   `json:"created_at"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string      `json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`
	ResolvedBy     string      `json:"resolved_by,omitempty"`
}

// Acknowledge transitions the alert to acknowledged.
// Only active alerts can be acknowledged.
func (a *Alert) Acknowledge(by string, at time.Time) error {
	if a.Status != AlertStatusActive {
		return fmt.Errorf("only active alerts can be acknowledged (status %q)", a.Status)
	}
	a.Status = AlertStatusAcknowledged
	a.AcknowledgedAt = &at
	a.AcknowledgedBy = by
	return nil
}

// Resolve transitions the alert to resolved. Allowed from active or
// acknowledged; resolving twice is rejected.
func (a *Alert) Resolve(by string, at time.Time) error {
	if a.Status == AlertStatusResolved {
		return fmt.Errorf("alert is already resolved")
	}
	a.Status = AlertStatusResolved
	a.ResolvedAt = &at
	a.ResolvedBy = by
	return nil
}
