// Package service contains identity workflows: walking the directory into a
// snapshot, persisting it and loading it back as a lookup index
package service

import (
	"context"
	"time"

	"batchcognito/internal/modkit"
	"batchcognito/internal/platform/logger"
	"batchcognito/internal/services/identity/domain"
	"batchcognito/internal/services/identity/repo"
)

// Config carries runtime knobs for sync
type Config struct {
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
	// Timeout bounds a whole sync, 0 disables
	Timeout time.Duration
}

// Svc implements the identity ports
type Svc struct {
	Repo   repo.Repo
	deps   modkit.Deps
	config Config
}

var (
	_ domain.BuilderPort = (*Svc)(nil)
	_ domain.SyncPort    = (*Svc)(nil)
	_ domain.LoaderPort  = (*Svc)(nil)
)

// New constructs an identity service backed by the filesystem repo
func New(deps modkit.Deps, cfg Config) *Svc {
	return &Svc{
		Repo:   repo.NewFS(),
		deps:   deps,
		config: withDefaults(cfg),
	}
}

func withDefaults(cfg Config) Config {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 30 * time.Second
	}
	if cfg.RetryMax < cfg.RetryBase {
		cfg.RetryMax = cfg.RetryBase
	}
	return cfg
}

func (s *Svc) buildOptions() domain.BuildOptions {
	return domain.BuildOptions{
		MaxAttempts: s.config.MaxAttempts,
		RetryBase:   s.config.RetryBase,
		RetryMax:    s.config.RetryMax,
	}
}

// log returns the module logger enriched with the run fields on ctx
func (s *Svc) log(ctx context.Context) *logger.Logger {
	b := s.deps.Log.With()
	if id := logger.RunID(ctx); id != "" {
		b = b.Str("run_id", id)
	}
	l := b.Logger()
	return &l
}
