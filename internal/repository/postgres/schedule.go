package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/repository"
)

type scheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *sql.DB) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Upsert(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	query := `
		INSERT INTO schedules (user_id, frequency, times, days, custom_interval_hours, grace_period_minutes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET frequency = EXCLUDED.frequency,
		    times = EXCLUDED.times,
		    days = EXCLUDED.days,
		    custom_interval_hours = EXCLUDED.custom_interval_hours,
		    grace_period_minutes = EXCLUDED.grace_period_minutes,
		    updated_at = EXCLUDED.updated_at
		RETURNING updated_at`

	schedule.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		schedule.UserID,
		schedule.Frequency,
		pq.Array(schedule.Times),
		pq.Array(schedule.Days),
		schedule.CustomIntervalHours,
		schedule.GracePeriodMinutes,
		schedule.UpdatedAt,
	).Scan(&schedule.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert schedule: %w", err)
	}

	return schedule, nil
}

func (r *scheduleRepository) GetByUserID(ctx context.Context, userID int64) (*models.Schedule, error) {
	query := `
		SELECT user_id, frequency, times, days, custom_interval_hours, grace_period_minutes, updated_at
		FROM schedules
		WHERE user_id = $1`

	schedule := &models.Schedule{}
	var days []int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&schedule.UserID,
		&schedule.Frequency,
		pq.Array(&schedule.Times),
		pq.Array(&days),
		&schedule.CustomIntervalHours,
		&schedule.GracePeriodMinutes,
		&schedule.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	schedule.Days = make([]int, len(days))
	for i, d := range days {
		schedule.Days[i] = int(d)
	}

	return schedule, nil
}
