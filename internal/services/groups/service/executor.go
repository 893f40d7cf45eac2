package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"batchcognito/internal/core/directory"
	perr "batchcognito/internal/platform/errors"
	"batchcognito/internal/services/groups/domain"
	identity "batchcognito/internal/services/identity/domain"

	"github.com/cenkalti/backoff/v4"
)

// job is a resolved task travelling between the queue, a worker and a
// backoff timer; exactly one of them owns it at a time
type job struct {
	task     domain.Task
	userID   string
	attempts int
	lastErr  error
	bo       backoff.BackOff
}

func (j *job) outcome(k domain.Kind, reason string) domain.Outcome {
	return domain.Outcome{Task: j.task, Kind: k, UserID: j.userID, Reason: reason, Attempts: j.attempts}
}

// Run resolves every target, applies op for each (target x group) pair and
// returns the summary once every task has a terminal outcome
func (e *Executor) Run(ctx context.Context, ix domain.Resolver, targets, groups []string, op directory.Operation) (domain.Summary, error) {
	if !op.Valid() {
		return domain.Summary{}, perr.InvalidArgf("unknown operation %s", op)
	}
	if ix == nil {
		return domain.Summary{}, perr.InvalidArgf("no identity index loaded")
	}
	if e.deps.Dir == nil {
		return domain.Summary{}, perr.InvalidArgf("no directory client configured")
	}
	groups, err := cleanGroups(groups)
	if err != nil {
		return domain.Summary{}, err
	}

	tasks := plan(e.dedupeTargets(ctx, targets), groups, op)
	tally := NewTally(len(tasks))
	e.track(ctx, op, tally)

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if e.config.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	log := e.log(ctx)
	log.Info().Str("op", op.String()).Strs("groups", groups).Int("tasks", len(tasks)).
		Int("concurrency", e.config.Concurrency).Msg("run started")

	stop := e.reportProgress(runCtx, tally)

	jobs := make([]*job, 0, len(tasks))
	for _, t := range tasks {
		id, res := ix.Resolve(t.Email)
		switch res {
		case identity.Resolved:
			jobs = append(jobs, &job{task: t, userID: id, bo: e.newBackOff()})
		case identity.Ambiguous:
			tally.Record(domain.Outcome{Task: t, Kind: domain.AmbiguousEmail, Reason: "email is shared by more than one user"})
		default:
			tally.Record(domain.Outcome{Task: t, Kind: domain.UnknownUser, Reason: "no user with this email in the index"})
		}
	}

	e.execute(runCtx, tally, jobs)
	stop()

	sum := tally.Summary()
	evt := log.Info()
	if !sum.OK() {
		evt = log.Warn()
	}
	evt.Str("op", op.String()).
		Int("succeeded", sum.Counts.Succeeded).
		Int("unknown_user", sum.Counts.UnknownUser).
		Int("ambiguous_email", sum.Counts.AmbiguousEmail).
		Int("failed", sum.Counts.Failed).
		Int("aborted", sum.Counts.Aborted).
		Dur("elapsed", tally.Snapshot().Elapsed).
		Msg("run complete")
	return sum, nil
}

// execute runs jobs on a bounded worker pool until each has an outcome
// Retrying jobs wait on a timer, not a worker, and re-enter the queue
func (e *Executor) execute(ctx context.Context, tally *Tally, jobs []*job) {
	if len(jobs) == 0 {
		return
	}

	queue := make(chan *job, len(jobs))
	var open sync.WaitGroup
	open.Add(len(jobs))
	for _, j := range jobs {
		queue <- j
	}

	finish := func(o domain.Outcome) {
		tally.Record(o)
		open.Done()
	}

	var workers, parked sync.WaitGroup
	n := min(e.config.Concurrency, len(jobs))
	for i := 0; i < n; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for j := range queue {
				e.attempt(ctx, j, queue, finish, &parked)
			}
		}()
	}

	open.Wait()
	close(queue)
	workers.Wait()
	parked.Wait()
}

// attempt admits j through the gate, issues one call and routes the result
func (e *Executor) attempt(ctx context.Context, j *job, queue chan<- *job, finish func(domain.Outcome), parked *sync.WaitGroup) {
	if ctx.Err() != nil {
		finish(j.outcome(domain.Aborted, e.abortReason(ctx, j)))
		return
	}
	if err := e.gate.Acquire(ctx, 1); err != nil {
		finish(j.outcome(domain.Aborted, e.abortReason(ctx, j)))
		return
	}
	if ctx.Err() != nil {
		e.gate.Release(1)
		finish(j.outcome(domain.Aborted, e.abortReason(ctx, j)))
		return
	}

	j.attempts++
	err := e.call(ctx, j)
	e.gate.Release(1)

	log := e.log(ctx)
	switch {
	case err == nil:
		log.Debug().Str("email", j.task.Email).Str("group", j.task.Group).Str("user_id", j.userID).
			Int("attempts", j.attempts).Msg("mutation applied")
		finish(j.outcome(domain.Succeeded, ""))

	case !perr.Retryable(err):
		log.Warn().Err(err).Str("email", j.task.Email).Str("group", j.task.Group).Str("user_id", j.userID).
			Msg("mutation failed")
		finish(j.outcome(domain.Failed, err.Error()))

	case j.attempts >= e.config.MaxAttempts:
		log.Warn().Err(err).Str("email", j.task.Email).Str("group", j.task.Group).Int("attempts", j.attempts).
			Msg("mutation failed; retries exhausted")
		finish(j.outcome(domain.Failed, fmt.Sprintf("gave up after %d attempts: %v", j.attempts, err)))

	default:
		j.lastErr = err
		wait := j.bo.NextBackOff()
		if wait == backoff.Stop || ctx.Err() != nil {
			finish(j.outcome(domain.Aborted, e.abortReason(ctx, j)))
			return
		}
		log.Debug().Err(err).Str("email", j.task.Email).Str("group", j.task.Group).
			Int("attempt", j.attempts).Dur("backoff", wait).Msg("mutation throttled; retrying")

		parked.Add(1)
		go func() {
			defer parked.Done()
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-t.C:
				queue <- j
			case <-ctx.Done():
				finish(j.outcome(domain.Aborted, e.abortReason(ctx, j)))
			}
		}()
	}
}

// call issues the mutation on a context detached from the run deadline so a
// dispatched call is allowed to finish; CallTimeout still bounds it
func (e *Executor) call(ctx context.Context, j *job) error {
	callCtx := context.WithoutCancel(ctx)
	if e.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, e.config.CallTimeout)
		defer cancel()
	}
	return e.deps.Dir.MutateGroup(callCtx, j.userID, j.task.Group, j.task.Op)
}

func (e *Executor) abortReason(ctx context.Context, j *job) string {
	why := "run canceled"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		why = fmt.Sprintf("run timed out after %s", e.config.Timeout)
	}
	if j.lastErr != nil {
		return fmt.Sprintf("%s while retrying: %v", why, j.lastErr)
	}
	return why + " before dispatch"
}

// reportProgress logs the running counts every ProgressEvery until stop is called
func (e *Executor) reportProgress(ctx context.Context, tally *Tally) (stop func()) {
	if e.config.ProgressEvery <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(e.config.ProgressEvery)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				p := tally.Snapshot()
				e.log(ctx).Info().
					Int("done", p.Done).
					Int("total", p.Total).
					Int("succeeded", p.Counts.Succeeded).
					Int("failed", p.Counts.Failed).
					Int("unresolved", p.Counts.UnknownUser+p.Counts.AmbiguousEmail).
					Dur("elapsed", p.Elapsed).
					Msg("progress")
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		wg.Wait()
	}
}
