package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/translatebot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// Upsert registers a user or refreshes their profile fields.
// New users start with reminders off; the preference of an existing user is kept.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	now := r.now().UTC()
	query := r.db.Rebind(`
		INSERT INTO users (telegram_id, username, first_name, last_name, notifications_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			updated_at = excluded.updated_at
	`)
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		false,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetByID returns a user by Telegram ID, or nil when unknown
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := r.db.Rebind(`
		SELECT telegram_id, username, first_name, last_name, notifications_enabled, created_at, updated_at
		FROM users WHERE telegram_id = ?
	`)
	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// SetNotifications toggles reminders for a user
func (r *UserRepository) SetNotifications(ctx context.Context, id int64, enabled bool) error {
	query := r.db.Rebind(`UPDATE users SET notifications_enabled = ?, updated_at = ? WHERE telegram_id = ?`)
	result, err := r.db.ExecContext(ctx, query, enabled, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update notifications: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListNotifiable returns the IDs of users that accept reminders
func (r *UserRepository) ListNotifiable(ctx context.Context) ([]int64, error) {
	query := r.db.Rebind(`
		SELECT telegram_id FROM users
		WHERE notifications_enabled = ?
		ORDER BY telegram_id
	`)
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, true); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return ids, nil
}

// ErrUserNotFound is returned when updating a user that was never registered
var ErrUserNotFound = errors.New("user not found")
