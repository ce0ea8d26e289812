package practice

import (
	"math/rand"

	"github.com/example/translatebot/pkg/models"
)

// NewProgress returns the initial record of a user in a content set of total
// items: everything unseen, nothing pending.
func NewProgress(userID int64, contentSet string, total int) *models.Progress {
	unseen := make([]int, total)
	for i := range unseen {
		unseen[i] = i
	}
	return &models.Progress{
		UserID:     userID,
		ContentSet: contentSet,
		Seen:       []int{},
		Unseen:     unseen,
		Position:   models.Idle(),
	}
}

// Draw picks an outstanding item uniformly at random and makes it the pending
// one. The item stays in Unseen until it is marked correct. It returns false,
// leaving the record untouched, when nothing is left to draw.
func Draw(p *models.Progress, rng *rand.Rand) (int, bool) {
	if len(p.Unseen) == 0 {
		return 0, false
	}
	idx := p.Unseen[rng.Intn(len(p.Unseen))]
	p.Position = models.AwaitingAttempt(idx)
	return idx, true
}

// MarkCorrect moves the pending item from Unseen to Seen and returns to idle.
// It is a no-op returning false when nothing is pending.
func MarkCorrect(p *models.Progress) bool {
	idx, ok := p.Position.Current()
	if !ok {
		return false
	}
	p.Unseen = remove(p.Unseen, idx)
	if !contains(p.Seen, idx) {
		p.Seen = append(p.Seen, idx)
	}
	p.Position = models.Idle()
	return true
}

// MarkIncorrect returns to idle, keeping the pending item eligible for a new
// draw. It is a no-op returning false when nothing is pending.
func MarkIncorrect(p *models.Progress) bool {
	if p.Position.IsIdle() {
		return false
	}
	p.Position = models.Idle()
	return true
}

// Reconcile repairs a stored record against the current size of its content
// set: out-of-range and duplicate indices are dropped, indices missing from
// both lists are added to Unseen, and a pending item that no longer exists is
// cleared. It reports whether anything changed.
func Reconcile(p *models.Progress, total int) bool {
	changed := false
	known := make(map[int]bool, total)

	seen := make([]int, 0, len(p.Seen))
	for _, i := range p.Seen {
		if i < 0 || i >= total || known[i] {
			changed = true
			continue
		}
		known[i] = true
		seen = append(seen, i)
	}

	unseen := make([]int, 0, len(p.Unseen))
	for _, i := range p.Unseen {
		if i < 0 || i >= total || known[i] {
			changed = true
			continue
		}
		known[i] = true
		unseen = append(unseen, i)
	}

	var missing []int
	for i := 0; i < total; i++ {
		if !known[i] {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		unseen = append(unseen, missing...)
		changed = true
	}

	if idx, ok := p.Position.Current(); ok && idx >= total {
		p.Position = models.Idle()
		changed = true
	}

	p.Seen = seen
	p.Unseen = unseen
	return changed
}

// Statistics summarises a record. A nil record counts as untouched.
func Statistics(contentSet string, p *models.Progress, total int) models.SetStatistics {
	if p == nil {
		return models.SetStatistics{ContentSet: contentSet, Unseen: total, Total: total}
	}
	return models.SetStatistics{
		ContentSet: contentSet,
		Seen:       len(p.Seen),
		Unseen:     len(p.Unseen),
		Total:      len(p.Seen) + len(p.Unseen),
	}
}

func remove(indices []int, idx int) []int {
	out := indices[:0]
	for _, i := range indices {
		if i != idx {
			out = append(out, i)
		}
	}
	return out
}

func contains(indices []int, idx int) bool {
	for _, i := range indices {
		if i == idx {
			return true
		}
	}
	return false
}
