package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/translatebot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ErrContentSetRequired is returned when saving progress without a content set.
var ErrContentSetRequired = errors.New("content set name is required")

// progressRow is the persisted shape of models.Progress
type progressRow struct {
	UserID       int64         `db:"user_id"`
	ContentSet   string        `db:"content_set"`
	Seen         string        `db:"seen"`
	Unseen       string        `db:"unseen"`
	CurrentIndex sql.NullInt64 `db:"current_index"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

// UserProgressRepository handles database operations for user progress
type UserProgressRepository struct {
	db *sqlx.DB
	// now is overridable in tests
	now func() time.Time
}

// NewUserProgressRepository creates a new repository instance
func NewUserProgressRepository(db *sqlx.DB) *UserProgressRepository {
	return &UserProgressRepository{db: db, now: time.Now}
}

// Find returns the progress of a user in a content set, or nil when the user
// has never touched that set.
func (r *UserProgressRepository) Find(ctx context.Context, userID int64, contentSet string) (*models.Progress, error) {
	query := r.db.Rebind(`
		SELECT user_id, content_set, seen, unseen, current_index, updated_at
		FROM user_progress
		WHERE user_id = ? AND content_set = ?
	`)

	var row progressRow
	err := r.db.GetContext(ctx, &row, query, userID, contentSet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	return row.toModel()
}

// ListByUser returns every progress record of a user, most recently touched first.
func (r *UserProgressRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Progress, error) {
	query := r.db.Rebind(`
		SELECT user_id, content_set, seen, unseen, current_index, updated_at
		FROM user_progress
		WHERE user_id = ?
		ORDER BY touched DESC
	`)

	var rows []progressRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user progress: %w", err)
	}

	result := make([]*models.Progress, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

// ContentSetsByRecency returns the names of the sets a user has progress in,
// most recently touched first.
func (r *UserProgressRepository) ContentSetsByRecency(ctx context.Context, userID int64) ([]string, error) {
	query := r.db.Rebind(`
		SELECT content_set FROM user_progress
		WHERE user_id = ?
		ORDER BY touched DESC
	`)

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get content sets: %w", err)
	}
	return names, nil
}

// Insert creates a progress record. An existing record is left untouched.
func (r *UserProgressRepository) Insert(ctx context.Context, progress *models.Progress) error {
	return r.write(ctx, progress, `
		INSERT INTO user_progress (user_id, content_set, seen, unseen, current_index, touched, updated_at)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(touched), 0) + 1 FROM user_progress WHERE user_id = ?), ?)
		ON CONFLICT (user_id, content_set) DO NOTHING
	`)
}

// Save creates or overwrites a progress record and marks it as the most recently touched.
func (r *UserProgressRepository) Save(ctx context.Context, progress *models.Progress) error {
	return r.write(ctx, progress, `
		INSERT INTO user_progress (user_id, content_set, seen, unseen, current_index, touched, updated_at)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(touched), 0) + 1 FROM user_progress WHERE user_id = ?), ?)
		ON CONFLICT (user_id, content_set) DO UPDATE SET
			seen = excluded.seen,
			unseen = excluded.unseen,
			current_index = excluded.current_index,
			touched = excluded.touched,
			updated_at = excluded.updated_at
	`)
}

func (r *UserProgressRepository) write(ctx context.Context, progress *models.Progress, query string) error {
	if progress.ContentSet == "" {
		return ErrContentSetRequired
	}

	row, err := fromModel(progress)
	if err != nil {
		return err
	}
	row.UpdatedAt = r.now().UTC()

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query),
		row.UserID,
		row.ContentSet,
		row.Seen,
		row.Unseen,
		row.CurrentIndex,
		row.UserID,
		row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save user progress: %w", err)
	}
	progress.UpdatedAt = row.UpdatedAt
	return nil
}

func fromModel(p *models.Progress) (progressRow, error) {
	seen, err := encodeIndices(p.Seen)
	if err != nil {
		return progressRow{}, err
	}
	unseen, err := encodeIndices(p.Unseen)
	if err != nil {
		return progressRow{}, err
	}

	row := progressRow{
		UserID:     p.UserID,
		ContentSet: p.ContentSet,
		Seen:       seen,
		Unseen:     unseen,
	}
	if i, ok := p.Position.Current(); ok {
		row.CurrentIndex = sql.NullInt64{Int64: int64(i), Valid: true}
	}
	return row, nil
}

func (row progressRow) toModel() (*models.Progress, error) {
	p := &models.Progress{
		UserID:     row.UserID,
		ContentSet: row.ContentSet,
		Position:   models.Idle(),
		UpdatedAt:  row.UpdatedAt,
	}
	var err error
	if p.Seen, err = decodeIndices(row.Seen); err != nil {
		return nil, fmt.Errorf("progress %d/%s: seen: %w", row.UserID, row.ContentSet, err)
	}
	if p.Unseen, err = decodeIndices(row.Unseen); err != nil {
		return nil, fmt.Errorf("progress %d/%s: unseen: %w", row.UserID, row.ContentSet, err)
	}
	// Negative values are the legacy "nothing pending" sentinel.
	if row.CurrentIndex.Valid && row.CurrentIndex.Int64 >= 0 {
		p.Position = models.AwaitingAttempt(int(row.CurrentIndex.Int64))
	}
	return p, nil
}

func encodeIndices(indices []int) (string, error) {
	if indices == nil {
		indices = []int{}
	}
	data, err := json.Marshal(indices)
	if err != nil {
		return "", fmt.Errorf("failed to encode indices: %w", err)
	}
	return string(data), nil
}

func decodeIndices(s string) ([]int, error) {
	indices := []int{}
	if s == "" {
		return indices, nil
	}
	if err := json.Unmarshal([]byte(s), &indices); err != nil {
		return nil, fmt.Errorf("failed to decode indices: %w", err)
	}
	if indices == nil {
		indices = []int{}
	}
	return indices, nil
}
