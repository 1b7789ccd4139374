package models

import "time"

// HealthTag is the user's self-reported condition at check-in time
type HealthTag string

const (
	HealthTagOkay     HealthTag = "okay"
	HealthTagUnwell   HealthTag = "unwell"
	HealthTagNeedTalk HealthTag = "need-talk"
)

// Valid reports whether the tag is one of the known values.
func (t HealthTag) Valid() bool {
	switch t {
	case HealthTagOkay, HealthTagUnwell, HealthTagNeedTalk:
		return true
	}
	return false
}

// CheckIn is an immutable record of a user confirming their safety.
// History is append-only: rows are never mutated or deleted.
type CheckIn struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	HealthTag HealthTag `json:"health_tag" db:"health_tag"`
	Note      string    `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
