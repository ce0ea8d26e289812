package models

import (
	"fmt"
	"time"
)

// Position is the place a user occupies inside a content set: either idle,
// or waiting for a translation attempt of one particular item.
type Position struct {
	index    int
	awaiting bool
}

// Idle returns the position with no item pending.
func Idle() Position {
	return Position{}
}

// AwaitingAttempt returns the position waiting for an attempt on item index.
// Negative indices are a programming error.
func AwaitingAttempt(index int) Position {
	if index < 0 {
		panic(fmt.Sprintf("models: negative item index %d", index))
	}
	return Position{index: index, awaiting: true}
}

// Current returns the pending item index, if any.
func (p Position) Current() (int, bool) {
	return p.index, p.awaiting
}

// IsIdle reports whether no item is pending.
func (p Position) IsIdle() bool {
	return !p.awaiting
}

// String returns "idle" or "awaiting(i)".
func (p Position) String() string {
	if !p.awaiting {
		return "idle"
	}
	return fmt.Sprintf("awaiting(%d)", p.index)
}

// Progress tracks a user's position within one content set
type Progress struct {
	UserID     int64     `json:"user_id"`
	ContentSet string    `json:"content_set"`
	Seen       []int     `json:"seen"`   // Items marked as translated correctly
	Unseen     []int     `json:"unseen"` // Items still eligible for a draw
	Position   Position  `json:"-"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the record. Index lists of the copy are never
// nil, matching what the SQL repository decodes.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	c := *p
	c.Seen = cloneIndices(p.Seen)
	c.Unseen = cloneIndices(p.Unseen)
	return &c
}

func cloneIndices(indices []int) []int {
	out := make([]int, len(indices))
	copy(out, indices)
	return out
}
