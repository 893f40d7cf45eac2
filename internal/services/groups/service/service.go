// Package service contains the bulk group mutation workflow
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"batchcognito/internal/core/directory"
	"batchcognito/internal/core/normalize"
	"batchcognito/internal/modkit"
	perr "batchcognito/internal/platform/errors"
	"batchcognito/internal/platform/logger"
	"batchcognito/internal/services/groups/domain"
	"batchcognito/internal/services/groups/repo"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"
)

// Config carries runtime knobs for the executor
type Config struct {
	// Concurrency caps mutation calls in flight across every run on the executor
	Concurrency int
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
	// CallTimeout bounds one directory call, 0 disables
	CallTimeout time.Duration
	// Timeout bounds a whole run, 0 disables
	Timeout time.Duration
	// ProgressEvery is the period of the progress log line, 0 disables
	ProgressEvery time.Duration
}

// Executor resolves targets through an index and applies group mutations
type Executor struct {
	Repo   repo.Repo
	deps   modkit.Deps
	config Config
	gate   *semaphore.Weighted

	// newBackOff builds the per-task retry schedule; tests shorten it
	newBackOff func() backoff.BackOff

	mu      sync.Mutex
	current *runState
}

type runState struct {
	id    string
	op    directory.Operation
	tally *Tally
}

var (
	_ domain.ExecutorPort = (*Executor)(nil)
	_ domain.ProgressPort = (*Executor)(nil)
	_ domain.TargetsPort  = (*Executor)(nil)
)

// New constructs an executor; deps.Dir must be set before Run
func New(deps modkit.Deps, cfg Config) *Executor {
	cfg = withDefaults(cfg)
	e := &Executor{
		Repo:   repo.NewFS(),
		deps:   deps,
		config: cfg,
		gate:   semaphore.NewWeighted(int64(cfg.Concurrency)),
	}
	e.newBackOff = func() backoff.BackOff { return newBackOff(cfg.RetryBase, cfg.RetryMax) }
	return e
}

func withDefaults(cfg Config) Config {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMax < cfg.RetryBase {
		cfg.RetryMax = 30 * time.Second
		if cfg.RetryMax < cfg.RetryBase {
			cfg.RetryMax = cfg.RetryBase
		}
	}
	return cfg
}

// newBackOff is exponential with 50% jitter, capped at max, never stopping
// on elapsed time; MaxAttempts bounds it instead
func newBackOff(base, max time.Duration) *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = base
	eb.MaxInterval = max
	eb.Multiplier = 2
	eb.RandomizationFactor = 0.5
	eb.MaxElapsedTime = 0
	eb.Reset()
	return eb
}

// ReadTargets loads the target emails for a run
func (e *Executor) ReadTargets(ctx context.Context, path string) ([]string, error) {
	return e.Repo.ReadTargets(ctx, path)
}

// Progress returns the counts of the current or most recent run
func (e *Executor) Progress() (domain.Progress, bool) {
	e.mu.Lock()
	cur := e.current
	e.mu.Unlock()
	if cur == nil {
		return domain.Progress{}, false
	}
	p := cur.tally.Snapshot()
	p.RunID = cur.id
	p.Op = cur.op.String()
	return p, true
}

func (e *Executor) track(ctx context.Context, op directory.Operation, t *Tally) {
	e.mu.Lock()
	e.current = &runState{id: logger.RunID(ctx), op: op, tally: t}
	e.mu.Unlock()
}

func (e *Executor) log(ctx context.Context) *logger.Logger {
	b := e.deps.Log.With()
	if id := logger.RunID(ctx); id != "" {
		b = b.Str("run_id", id)
	}
	l := b.Logger()
	return &l
}

// cleanGroups trims, drops blanks and repeats, keeping first-seen order
func cleanGroups(groups []string) ([]string, error) {
	out := make([]string, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	if len(out) == 0 {
		return nil, perr.WithField(perr.InvalidArgf("at least one group is required"), "group")
	}
	return out, nil
}

// dedupeTargets collapses emails that normalize to the same key
func (e *Executor) dedupeTargets(ctx context.Context, targets []string) []string {
	out := make([]string, 0, len(targets))
	seen := make(map[string]struct{}, len(targets))
	dups := 0
	for _, t := range targets {
		t = strings.TrimSpace(t)
		key := normalize.Email(t)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			dups++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	if dups > 0 {
		e.log(ctx).Warn().Int("duplicates", dups).Int("targets", len(out)).
			Msg("duplicate target emails collapsed")
	}
	return out
}

// plan expands targets x groups into tasks numbered in input order
func plan(targets, groups []string, op directory.Operation) []domain.Task {
	tasks := make([]domain.Task, 0, len(targets)*len(groups))
	for _, t := range targets {
		for _, g := range groups {
			tasks = append(tasks, domain.Task{Seq: len(tasks), Email: t, Group: g, Op: op})
		}
	}
	return tasks
}
