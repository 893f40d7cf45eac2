package service

import (
	"context"
	"time"

	"batchcognito/internal/core/directory"
	perr "batchcognito/internal/platform/errors"
	"batchcognito/internal/platform/logger"
	"batchcognito/internal/services/identity/domain"

	"github.com/cenkalti/backoff/v4"
)

// Build walks every page of the directory and returns the records in order
// Any page that cannot be fetched fails the whole build; no partial result
func (s *Svc) Build(ctx context.Context, lister directory.Lister, opts domain.BuildOptions) ([]directory.Record, error) {
	recs, _, err := walk(ctx, lister, opts, s.log(ctx))
	return recs, err
}

// Build is the service-free form used by tests and tooling
func Build(ctx context.Context, lister directory.Lister, opts domain.BuildOptions) ([]directory.Record, error) {
	recs, _, err := walk(ctx, lister, opts, logger.Named("identity"))
	return recs, err
}

func walk(ctx context.Context, lister directory.Lister, opts domain.BuildOptions, log *logger.Logger) ([]directory.Record, int, error) {
	if lister == nil {
		return nil, 0, &domain.IndexBuildError{Cause: perr.InvalidArgf("no directory client configured")}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	var (
		out    []directory.Record
		seen   = make(map[string]int)
		cursor string
		pages  int
	)

	for {
		page, err := fetchPage(ctx, lister, cursor, opts, pages, log)
		if err != nil {
			return nil, pages, &domain.IndexBuildError{PagesCompleted: pages, Cause: err}
		}

		for _, r := range page.Records {
			if prev, dup := seen[r.UserID]; dup {
				return nil, pages, &domain.IndexBuildError{
					PagesCompleted: pages,
					Cause:          perr.Conflictf("user id %q listed on page %d and again on page %d", r.UserID, prev+1, pages+1),
				}
			}
			seen[r.UserID] = pages
			out = append(out, r)
		}
		pages++

		log.Debug().Int("page", pages).Int("records", len(page.Records)).Int("total", len(out)).Msg("page listed")

		if page.Next == "" {
			return out, pages, nil
		}
		if page.Next == cursor {
			return nil, pages, &domain.IndexBuildError{
				PagesCompleted: pages,
				Cause:          perr.Conflictf("pagination token did not advance after page %d", pages),
			}
		}
		cursor = page.Next
	}
}

// fetchPage retries one page request until it succeeds, fails permanently,
// exhausts MaxAttempts or ctx ends
func fetchPage(ctx context.Context, lister directory.Lister, cursor string, opts domain.BuildOptions, pages int, log *logger.Logger) (directory.Page, error) {
	var page directory.Page
	attempt := 0

	op := func() error {
		attempt++
		p, err := lister.ListPage(ctx, cursor)
		if err == nil {
			page = p
			return nil
		}
		if ctx.Err() != nil || !perr.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).
			Int("page", pages+1).
			Int("attempt", attempt).
			Int("max_attempts", opts.MaxAttempts).
			Dur("backoff", wait).
			Msg("list page failed; retrying")
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(opts.RetryBase, opts.RetryMax), uint64(opts.MaxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if attempt >= opts.MaxAttempts && perr.Retryable(err) {
			return page, perr.Wrapf(err, perr.CodeOf(err), "gave up after %d attempts", attempt)
		}
		return page, err
	}
	return page, nil
}

// newBackOff is exponential with 50% jitter, capped at max, no elapsed limit
func newBackOff(base, max time.Duration) *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	if base > 0 {
		eb.InitialInterval = base
	}
	if max > 0 {
		eb.MaxInterval = max
	}
	eb.Multiplier = 2
	eb.RandomizationFactor = 0.5
	eb.MaxElapsedTime = 0
	eb.Reset()
	return eb
}
