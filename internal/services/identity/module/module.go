// Package module wires the identity service and exposes its ports
package module

import (
	"batchcognito/internal/modkit"
	phttp "batchcognito/internal/platform/net/http"
	"batchcognito/internal/services/identity/service"
)

// Module defines the identity module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New constructs the identity module; overrides win over config when non-zero
func New(deps modkit.Deps, overrides Options) (*Module, error) {
	opts := FromConfig(deps.Cfg).merge(overrides)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	svc := service.New(deps, service.Config{
		MaxAttempts: opts.MaxAttempts,
		RetryBase:   opts.RetryBase,
		RetryMax:    opts.RetryMax,
		Timeout:     opts.Timeout,
	})

	m := &Module{deps: deps, opts: opts}
	m.ports = Ports{
		Builder: svc,
		Sync:    svc,
		Loader:  svc,
	}
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string { return "identity" }

// Ports returns the module ports (Builder, Sync, Loader)
func (m *Module) Ports() any { return m.ports }

// Options returns the effective options after config and overrides
func (m *Module) Options() Options { return m.opts }

// MountRoutes returns no HTTP routes for identity (it's a CLI service)
func (m *Module) MountRoutes(_ phttp.Router) {}
