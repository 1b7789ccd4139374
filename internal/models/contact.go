package models

import "time"

// MaxContactsPerUser caps how many emergency contacts a user may register.
// Enforced at the API boundary, not by the alert core.
const MaxContactsPerUser = 5

// EmergencyContact is a person notified when their user misses a check-in
type EmergencyContact struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Relationship string    `json:"relationship,omitempty" db:"relationship"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
