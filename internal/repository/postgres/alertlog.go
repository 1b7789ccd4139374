package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/repository"
)

type alertLogRepository struct {
	db *sql.DB
}

// NewAlertLogRepository creates a new alert log repository
func NewAlertLogRepository(db *sql.DB) repository.AlertLogRepository {
	return &alertLogRepository{db: db}
}

func (r *alertLogRepository) Create(ctx context.Context, log *models.AlertLog) (*models.AlertLog, error) {
	query := `
		INSERT INTO alert_logs (user_id, contact_id, alert_type, status, message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if log.SentAt.IsZero() {
		log.SentAt = time.Now()
	}

	err := r.db.QueryRowContext(ctx, query,
		log.UserID,
		log.ContactID,
		log.AlertType,
		log.Status,
		log.Message,
		log.SentAt,
	).Scan(&log.ID)

	if err != nil {
		return nil, fmt.Errorf("failed to create alert log: %w", err)
	}

	return log, nil
}

func (r *alertLogRepository) GetSince(ctx context.Context, userID int64, since time.Time) ([]*models.AlertLog, error) {
	query := `
		SELECT id, user_id, contact_id, alert_type, status, message, sent_at
		FROM alert_logs
		WHERE user_id = $1 AND sent_at > $2
		ORDER BY sent_at DESC`

	return r.query(ctx, query, userID, since)
}

func (r *alertLogRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.AlertLog, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, user_id, contact_id, alert_type, status, message, sent_at
		FROM alert_logs
		WHERE user_id = $1
		ORDER BY sent_at DESC
		LIMIT $2`

	return r.query(ctx, query, userID, limit)
}

func (r *alertLogRepository) query(ctx context.Context, query string, args ...any) ([]*models.AlertLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AlertLog
	for rows.Next() {
		log := &models.AlertLog{}
		if err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.ContactID,
			&log.AlertType,
			&log.Status,
			&log.Message,
			&log.SentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert log: %w", err)
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
