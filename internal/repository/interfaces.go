package repository

import (
	"context"
	"time"

	"github.com/alfredang/iamgood/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// ScheduleRepository defines the interface for check-in schedule operations.
// A user without a stored row gets the process-wide defaults; GetByUserID
// returns (nil, nil) in that case and callers apply models.DefaultSchedule.
type ScheduleRepository interface {
	Upsert(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Schedule, error)
}

// CheckInRepository defines the interface for check-in history operations.
// The history is append-only: there is no update or delete.
type CheckInRepository interface {
	Create(ctx context.Context, checkIn *models.CheckIn) (*models.CheckIn, error)
	GetLatest(ctx context.Context, userID int64) (*models.CheckIn, error)
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.CheckIn, error)
}

// ContactRepository defines the interface for emergency contact operations
type ContactRepository interface {
	Create(ctx context.Context, contact *models.EmergencyContact) (*models.EmergencyContact, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.EmergencyContact, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	Delete(ctx context.Context, id, userID int64) error
}

// AlertLogRepository defines the interface for the alert audit trail.
// Rows are append-only; GetSince powers the once-per-episode dedup check.
type AlertLogRepository interface {
	Create(ctx context.Context, log *models.AlertLog) (*models.AlertLog, error)
	GetSince(ctx context.Context, userID int64, since time.Time) ([]*models.AlertLog, error)
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.AlertLog, error)
}
