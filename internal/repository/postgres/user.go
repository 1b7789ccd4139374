package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, role, telegram_id, setup_complete, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Name,
		user.Email,
		user.Role,
		user.TelegramID,
		user.SetupComplete,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return r.getOne(ctx, `WHERE telegram_id = $1`, telegramID)
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `
		SELECT id, name, email, role, telegram_id, setup_complete, created_at, updated_at
		FROM users ` + where

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.TelegramID,
		&user.SetupComplete,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *userRepository) GetByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	query := `
		SELECT id, name, email, role, telegram_id, setup_complete, created_at, updated_at
		FROM users
		WHERE role = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by role: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.TelegramID,
			&user.SetupComplete,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $2, email = $3, role = $4, telegram_id = $5, setup_complete = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at`

	user.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Role,
		user.TelegramID,
		user.SetupComplete,
		user.UpdatedAt,
	).Scan(&user.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
