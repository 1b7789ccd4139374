package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/repository"
)

type checkInRepository struct {
	db *sql.DB
}

// NewCheckInRepository creates a new check-in repository
func NewCheckInRepository(db *sql.DB) repository.CheckInRepository {
	return &checkInRepository{db: db}
}

func (r *checkInRepository) Create(ctx context.Context, checkIn *models.CheckIn) (*models.CheckIn, error) {
	query := `
		INSERT INTO check_ins (user_id, timestamp, health_tag, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	now := time.Now()
	if checkIn.Timestamp.IsZero() {
		checkIn.Timestamp = now
	}
	checkIn.CreatedAt = now
	if checkIn.HealthTag == "" {
		checkIn.HealthTag = models.HealthTagOkay
	}

	err := r.db.QueryRowContext(ctx, query,
		checkIn.UserID,
		checkIn.Timestamp,
		checkIn.HealthTag,
		checkIn.Note,
		checkIn.CreatedAt,
	).Scan(&checkIn.ID, &checkIn.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}

	return checkIn, nil
}

func (r *checkInRepository) GetLatest(ctx context.Context, userID int64) (*models.CheckIn, error) {
	query := `
		SELECT id, user_id, timestamp, health_tag, note, created_at
		FROM check_ins
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT 1`

	checkIn := &models.CheckIn{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&checkIn.ID,
		&checkIn.UserID,
		&checkIn.Timestamp,
		&checkIn.HealthTag,
		&checkIn.Note,
		&checkIn.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest check-in: %w", err)
	}

	return checkIn, nil
}

func (r *checkInRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.CheckIn, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, timestamp, health_tag, note, created_at
		FROM check_ins
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	var checkIns []*models.CheckIn
	for rows.Next() {
		checkIn := &models.CheckIn{}
		if err := rows.Scan(
			&checkIn.ID,
			&checkIn.UserID,
			&checkIn.Timestamp,
			&checkIn.HealthTag,
			&checkIn.Note,
			&checkIn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		checkIns = append(checkIns, checkIn)
	}

	return checkIns, rows.Err()
}
