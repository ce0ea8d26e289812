package practice

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/example/translatebot/internal/content"
	"github.com/example/translatebot/internal/logger"
	"github.com/example/translatebot/pkg/models"
)

// Repository persists progress records keyed by (user, content set).
type Repository interface {
	Find(ctx context.Context, userID int64, contentSet string) (*models.Progress, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Progress, error)
	ContentSetsByRecency(ctx context.Context, userID int64) ([]string, error)
	Insert(ctx context.Context, progress *models.Progress) error
	Save(ctx context.Context, progress *models.Progress) error
}

// ItemResult is the outcome of requesting an item.
type ItemResult struct {
	ContentSet string
	Index      int
	Source     string
	Exhausted  bool // nothing left to draw, no item was selected
}

// AttemptResult is the outcome of a free-text translation attempt.
type AttemptResult struct {
	ContentSet string
	Pending    bool // false when no item was waiting; the attempt is ignored
	Index      int
	Target     string
}

// AssessmentResult is the outcome of a correct/incorrect self-assessment.
type AssessmentResult struct {
	ContentSet string
	Applied    bool // false when no item was pending
}

// Service runs the practice state machine on top of a content store and a
// progress repository.
type Service struct {
	content *content.Store
	repo    Repository
	log     *logger.Logger
	locks   *userLocks

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithRand sets the random source used for drawing items.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// NewService creates a practice service.
func NewService(store *content.Store, repo Repository, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		content: store,
		repo:    repo,
		log:     log,
		locks:   newUserLocks(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ContentSets returns the known content set names in menu order.
func (s *Service) ContentSets() []string {
	return s.content.Names()
}

// ActiveContentSet returns the content set the user touched last, or the
// default set for a new user.
func (s *Service) ActiveContentSet(ctx context.Context, userID int64) (string, error) {
	if s.content.Empty() {
		return "", ErrNoContent
	}
	unlock := s.locks.lock(userID)
	defer unlock()
	return s.activeContentSet(ctx, userID)
}

// Start resolves the active content set of a user and makes sure a progress
// record exists for it.
func (s *Service) Start(ctx context.Context, userID int64) (string, error) {
	if s.content.Empty() {
		return "", ErrNoContent
	}
	unlock := s.locks.lock(userID)
	defer unlock()

	name, err := s.activeContentSet(ctx, userID)
	if err != nil {
		return "", err
	}
	if _, err := s.getOrCreate(ctx, userID, name); err != nil {
		return "", err
	}
	return name, nil
}

// RequestItem draws an outstanding item from the active content set.
func (s *Service) RequestItem(ctx context.Context, userID int64) (ItemResult, error) {
	if s.content.Empty() {
		return ItemResult{}, ErrNoContent
	}
	unlock := s.locks.lock(userID)
	defer unlock()

	p, err := s.activeProgress(ctx, userID)
	if err != nil {
		return ItemResult{}, err
	}

	result := ItemResult{ContentSet: p.ContentSet}
	idx, ok := s.draw(p)
	if !ok {
		result.Exhausted = true
		return result, nil
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return ItemResult{}, err
	}

	item, _ := s.content.Item(p.ContentSet, idx)
	result.Index = idx
	result.Source = item.Source
	s.log.Debug("item drawn", "user_id", userID, "content_set", p.ContentSet, "index", idx, "unseen", len(p.Unseen))
	return result, nil
}

// SubmitAttempt reveals the reference translation of the pending item. With
// nothing pending the attempt is ignored and Pending is false.
func (s *Service) SubmitAttempt(ctx context.Context, userID int64) (AttemptResult, error) {
	if s.content.Empty() {
		return AttemptResult{}, ErrNoContent
	}
	unlock := s.locks.lock(userID)
	defer unlock()

	p, err := s.activeProgress(ctx, userID)
	if err != nil {
		return AttemptResult{}, err
	}

	result := AttemptResult{ContentSet: p.ContentSet}
	idx, ok := p.Position.Current()
	if !ok {
		return result, nil
	}
	item, ok := s.content.Item(p.ContentSet, idx)
	if !ok {
		return result, nil
	}
	result.Pending = true
	result.Index = idx
	result.Target = item.Target
	return result, nil
}

// MarkCorrect records the pending item as translated correctly.
func (s *Service) MarkCorrect(ctx context.Context, userID int64) (AssessmentResult, error) {
	return s.assess(ctx, userID, MarkCorrect)
}

// MarkIncorrect returns the pending item to the pool of outstanding items.
func (s *Service) MarkIncorrect(ctx context.Context, userID int64) (AssessmentResult, error) {
	return s.assess(ctx, userID, MarkIncorrect)
}

func (s *Service) assess(ctx context.Context, userID int64, mark func(*models.Progress) bool) (AssessmentResult, error) {
	if s.content.Empty() {
		return AssessmentResult{}, ErrNoContent
	}
	unlock := s.locks.lock(userID)
	defer unlock()

	p, err := s.activeProgress(ctx, userID)
	if err != nil {
		return AssessmentResult{}, err
	}

	result := AssessmentResult{ContentSet: p.ContentSet}
	if !mark(p) {
		return result, nil
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return AssessmentResult{}, err
	}
	result.Applied = true
	return result, nil
}

// SwitchContentSet makes name the active content set of the user. An unknown
// name returns ErrUnknownContentSet and changes nothing.
func (s *Service) SwitchContentSet(ctx context.Context, userID int64, name string) error {
	if s.content.Empty() {
		return ErrNoContent
	}
	if !s.content.Has(name) {
		return fmt.Errorf("%q: %w", name, ErrUnknownContentSet)
	}
	unlock := s.locks.lock(userID)
	defer unlock()

	current, err := s.activeProgress(ctx, userID)
	if err != nil {
		return err
	}
	if current.ContentSet == name {
		return s.repo.Save(ctx, current)
	}

	next, err := s.getOrCreate(ctx, userID, name)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return err
	}
	s.log.Info("content set switched", "user_id", userID, "from", current.ContentSet, "to", name)
	return nil
}

// Statistics reports the progress of a user in every known content set. It
// never writes.
func (s *Service) Statistics(ctx context.Context, userID int64) ([]models.SetStatistics, error) {
	if s.content.Empty() {
		return nil, ErrNoContent
	}
	unlock := s.locks.lock(userID)
	defer unlock()

	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*models.Progress, len(records))
	for _, r := range records {
		byName[r.ContentSet] = r
	}

	names := s.content.Names()
	stats := make([]models.SetStatistics, 0, len(names))
	for _, name := range names {
		total := s.content.Len(name)
		p := byName[name]
		if p != nil {
			Reconcile(p, total)
		}
		stats = append(stats, Statistics(name, p, total))
	}
	return stats, nil
}

// activeContentSet must be called with the user lock held.
func (s *Service) activeContentSet(ctx context.Context, userID int64) (string, error) {
	names, err := s.repo.ContentSetsByRecency(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if s.content.Has(name) {
			return name, nil
		}
	}
	return s.content.Default(), nil
}

// activeProgress must be called with the user lock held.
func (s *Service) activeProgress(ctx context.Context, userID int64) (*models.Progress, error) {
	name, err := s.activeContentSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.getOrCreate(ctx, userID, name)
}

// getOrCreate loads the record of a user in a set, creating and persisting it
// when missing. Stored records are reconciled with the current content size.
func (s *Service) getOrCreate(ctx context.Context, userID int64, name string) (*models.Progress, error) {
	total := s.content.Len(name)
	p, err := s.repo.Find(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = NewProgress(userID, name, total)
		if err := s.repo.Insert(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	if Reconcile(p, total) {
		s.log.Warn("progress reconciled with content", "user_id", userID, "content_set", name, "total", total)
		if err := s.repo.Save(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *Service) draw(p *models.Progress) (int, bool) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return Draw(p, s.rng)
}
