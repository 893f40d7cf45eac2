// Package module wires the groups service and exposes its ports
package module

import (
	"net/http"

	"batchcognito/internal/core/version"
	"batchcognito/internal/modkit"
	perr "batchcognito/internal/platform/errors"
	phttp "batchcognito/internal/platform/net/http"
	"batchcognito/internal/services/groups/service"
)

// Module defines the groups module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New constructs the groups module; overrides win over config when non-zero
func New(deps modkit.Deps, overrides Options) (*Module, error) {
	opts := FromConfig(deps.Cfg).merge(overrides)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	svc := service.New(deps, service.Config{
		Concurrency:   opts.Concurrency,
		MaxAttempts:   opts.MaxAttempts,
		RetryBase:     opts.RetryBase,
		RetryMax:      opts.RetryMax,
		CallTimeout:   opts.CallTimeout,
		Timeout:       opts.Timeout,
		ProgressEvery: opts.ProgressEvery,
	})

	m := &Module{deps: deps, opts: opts}
	m.ports = Ports{
		Executor: svc,
		Progress: svc,
		Targets:  svc,
	}
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string { return "groups" }

// Ports returns the module ports (Executor, Progress, Targets)
func (m *Module) Ports() any { return m.ports }

// Options returns the effective options after config and overrides
func (m *Module) Options() Options { return m.opts }

// MountRoutes exposes run introspection while a run is active
func (m *Module) MountRoutes(r phttp.Router) {
	r.Get("/progress", phttp.Handle(func(*http.Request) phttp.Response {
		p, ok := m.ports.Progress.Progress()
		if !ok {
			return phttp.Error(perr.NotFoundf("no run has started"))
		}
		return phttp.OK(p)
	}))
	r.Get("/healthz", phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.OK(version.Info())
	}))
}
