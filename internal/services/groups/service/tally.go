package service

import (
	"sync"
	"sync/atomic"
	"time"

	"batchcognito/internal/services/groups/domain"
)

// Tally folds outcomes as they arrive
// Counts are atomics so Snapshot never waits on workers; the problem list is
// only locked for non-success outcomes
type Tally struct {
	total   int
	started time.Time

	counts [domain.Aborted + 1]atomic.Int64
	done   atomic.Int64

	mu       sync.Mutex
	problems []domain.Outcome
}

// NewTally prepares a tally for total tasks
func NewTally(total int) *Tally {
	return &Tally{total: total, started: time.Now()}
}

// Record stores one terminal outcome
func (t *Tally) Record(o domain.Outcome) {
	if int(o.Kind) < len(t.counts) {
		t.counts[o.Kind].Add(1)
	}
	t.done.Add(1)
	if o.OK() {
		return
	}
	t.mu.Lock()
	t.problems = append(t.problems, o)
	t.mu.Unlock()
}

// Snapshot returns the running counts
func (t *Tally) Snapshot() domain.Progress {
	var c domain.Counts
	for _, k := range domain.Kinds() {
		c = c.Add(k, int(t.counts[k].Load()))
	}
	return domain.Progress{
		Total:   t.total,
		Done:    int(t.done.Load()),
		Counts:  c,
		Elapsed: time.Since(t.started),
	}
}

// Summary returns the final aggregate with problems in task order
func (t *Tally) Summary() domain.Summary {
	s := domain.Summary{Counts: t.Snapshot().Counts}
	t.mu.Lock()
	if len(t.problems) > 0 {
		s.Problems = append([]domain.Outcome(nil), t.problems...)
	}
	t.mu.Unlock()
	domain.SortOutcomes(s.Problems)
	return s
}
