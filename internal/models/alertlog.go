package models

import "time"

// AlertType is the channel a notification attempt went through
type AlertType string

const (
	AlertTypeEmail AlertType = "email"
	AlertTypeSMS   AlertType = "sms"
)

// AlertStatus is the recorded outcome of a notification attempt
type AlertStatus string

const (
	AlertStatusSent    AlertStatus = "sent"
	AlertStatusFailed  AlertStatus = "failed"
	AlertStatusPending AlertStatus = "pending"
)

// AlertLog is one row per (user, contact, channel) notification attempt.
// Rows are written by the alert dispatcher and never updated afterward;
// the log doubles as the dedup state for overdue episodes, so there is no
// separate "suppressed until" field anywhere.
type AlertLog struct {
	ID        int64       `json:"id" db:"id"`
	UserID    int64       `json:"user_id" db:"user_id"`
	ContactID *int64      `json:"contact_id,omitempty" db:"contact_id"`
	AlertType AlertType   `json:"alert_type" db:"alert_type"`
	Status    AlertStatus `json:"status" db:"status"`
	Message   string      `json:"message" db:"message"`
	SentAt    time.Time   `json:"sent_at" db:"sent_at"`
}
