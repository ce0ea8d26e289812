package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/translatebot/pkg/models"
)

type progressKey struct {
	userID     int64
	contentSet string
}

type memoryProgress struct {
	progress *models.Progress
	touched  int64
}

// MemoryStore keeps progress and users in process memory. It implements the
// same contracts as UserProgressRepository and UserRepository and is used with
// DB_TYPE=memory and in tests. Everything is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	progress map[progressKey]*memoryProgress
	users    map[int64]*models.User
	touched  map[int64]int64
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		progress: make(map[progressKey]*memoryProgress),
		users:    make(map[int64]*models.User),
		touched:  make(map[int64]int64),
		now:      time.Now,
	}
}

// Find returns a copy of the record, or nil when the user never touched the set.
func (s *MemoryStore) Find(_ context.Context, userID int64, contentSet string) (*models.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.progress[progressKey{userID, contentSet}]
	if !ok {
		return nil, nil
	}
	return entry.progress.Clone(), nil
}

// ListByUser returns copies of all records of a user, most recent first.
func (s *MemoryStore) ListByUser(_ context.Context, userID int64) ([]*models.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.userEntries(userID)
	result := make([]*models.Progress, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.progress.Clone())
	}
	return result, nil
}

// ContentSetsByRecency returns the sets a user touched, most recent first.
func (s *MemoryStore) ContentSetsByRecency(_ context.Context, userID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.userEntries(userID)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.progress.ContentSet)
	}
	return names, nil
}

// Insert stores a new record. An existing record is left untouched.
func (s *MemoryStore) Insert(_ context.Context, progress *models.Progress) error {
	if progress.ContentSet == "" {
		return ErrContentSetRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := progressKey{progress.UserID, progress.ContentSet}
	if _, exists := s.progress[key]; exists {
		return nil
	}
	s.store(key, progress)
	return nil
}

// Save creates or replaces a record and marks it most recent.
func (s *MemoryStore) Save(_ context.Context, progress *models.Progress) error {
	if progress.ContentSet == "" {
		return ErrContentSetRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store(progressKey{progress.UserID, progress.ContentSet}, progress)
	return nil
}

// store must be called with mu held.
func (s *MemoryStore) store(key progressKey, progress *models.Progress) {
	s.touched[key.userID]++
	progress.UpdatedAt = s.now().UTC()
	s.progress[key] = &memoryProgress{progress: progress.Clone(), touched: s.touched[key.userID]}
}

// userEntries must be called with mu held.
func (s *MemoryStore) userEntries(userID int64) []*memoryProgress {
	var entries []*memoryProgress
	for key, e := range s.progress {
		if key.userID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].touched > entries[j].touched })
	return entries
}

// Upsert registers a user or refreshes their profile. New users start with
// reminders off.
func (s *MemoryStore) Upsert(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if existing, ok := s.users[user.ID]; ok {
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.UpdatedAt = now
		return nil
	}
	u := *user
	u.NotificationsEnabled = false
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[user.ID] = &u
	return nil
}

// GetByID returns a user, or nil when unknown.
func (s *MemoryStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

// SetNotifications toggles reminders for a registered user.
func (s *MemoryStore) SetNotifications(_ context.Context, id int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.NotificationsEnabled = enabled
	u.UpdatedAt = s.now().UTC()
	return nil
}

// ListNotifiable returns IDs of users with reminders on, in ascending order.
func (s *MemoryStore) ListNotifiable(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, u := range s.users {
		if u.NotificationsEnabled {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
