package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/repository"
)

type contactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new emergency contact repository
func NewContactRepository(db *sql.DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *models.EmergencyContact) (*models.EmergencyContact, error) {
	query := `
		INSERT INTO emergency_contacts (user_id, name, email, phone, relationship, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	contact.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		contact.UserID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Relationship,
		contact.CreatedAt,
	).Scan(&contact.ID, &contact.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return contact, nil
}

func (r *contactRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.EmergencyContact, error) {
	query := `
		SELECT id, user_id, name, email, phone, relationship, created_at
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.EmergencyContact
	for rows.Next() {
		contact := &models.EmergencyContact{}
		if err := rows.Scan(
			&contact.ID,
			&contact.UserID,
			&contact.Name,
			&contact.Email,
			&contact.Phone,
			&contact.Relationship,
			&contact.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	return contacts, rows.Err()
}

func (r *contactRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM emergency_contacts WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

func (r *contactRepository) Delete(ctx context.Context, id, userID int64) error {
	query := `DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("contact with ID %d not found", id)
	}

	return nil
}
