package service

import (
	"context"
	"errors"
	"io"
	"time"

	"batchcognito/internal/core/directory"
	perr "batchcognito/internal/platform/errors"
	"batchcognito/internal/services/identity/domain"
)

// SyncToFile rebuilds the snapshot from the directory and atomically replaces path
// A failed build or persist leaves any previous snapshot in place
func (s *Svc) SyncToFile(ctx context.Context, path string) (domain.SyncResult, error) {
	return s.sync(ctx, path, func(ctx context.Context, recs []directory.Record) error {
		return s.Repo.Persist(ctx, path, recs)
	})
}

// SyncToWriter rebuilds the snapshot and streams it to w
func (s *Svc) SyncToWriter(ctx context.Context, w io.Writer) (domain.SyncResult, error) {
	return s.sync(ctx, "", func(ctx context.Context, recs []directory.Record) error {
		return s.Repo.Write(ctx, w, recs)
	})
}

func (s *Svc) sync(ctx context.Context, dest string, write func(context.Context, []directory.Record) error) (domain.SyncResult, error) {
	start := time.Now()
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	log := s.log(ctx)
	log.Info().Str("dest", destLabel(dest)).Msg("sync started")

	recs, pages, err := walk(ctx, s.deps.Dir, s.buildOptions(), log)
	if err != nil {
		return domain.SyncResult{Pages: pages}, s.timeout(ctx, err)
	}

	if err := write(ctx, recs); err != nil {
		return domain.SyncResult{Pages: pages}, s.timeout(ctx, err)
	}

	res := domain.SyncResult{
		Pages: pages,
		Stats: domain.NewIndex(recs).Stats(),
		Dest:  dest,
	}
	evt := log.Info()
	if res.Stats.Ambiguous > 0 {
		evt = log.Warn()
	}
	evt.Int("pages", res.Pages).
		Int("records", res.Stats.Records).
		Int("ambiguous_emails", res.Stats.Ambiguous).
		Int("without_email", res.Stats.NoEmail).
		Str("dest", destLabel(dest)).
		Dur("elapsed", time.Since(start)).
		Msg("sync complete")
	return res, nil
}

// timeout rewrites a deadline expiry into the operator-facing message
func (s *Svc) timeout(ctx context.Context, err error) error {
	if s.config.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return perr.Wrapf(err, perr.ErrorCodeDeadline, "sync operation timed out after %s", s.config.Timeout)
	}
	return err
}

func destLabel(dest string) string {
	if dest == "" {
		return "stdout"
	}
	return dest
}
