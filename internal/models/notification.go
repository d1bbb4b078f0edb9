package models

import "time"

// NotificationStatus represents the outcome of a delivery attempt.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// AlertNotification records one delivery attempt for one recipient of one
// channel. Rows are append-only: a retry produces a new row, never an edit.
type AlertNotification struct {
	ID           string             `json:"id"`
	AlertID      string             `json:"alert_id"`
	ChannelID    string             `json:"channel_id"`
	Recipient    string             `json:"recipient"`
	Status       NotificationStatus `json:"status"`
	SentAt       *time.Time         `json:"sent_at,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
}
