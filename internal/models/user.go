package models

import "time"

// Role controls whether a user participates in overdue scanning. Admins
// manage the system and are never alerted on.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a person whose safety check-ins are tracked
type User struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	Role          Role      `json:"role" db:"role"`
	TelegramID    *int64    `json:"telegram_id,omitempty" db:"telegram_id"`
	SetupComplete bool      `json:"setup_complete" db:"setup_complete"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
