// Package module defines what a batchcognito service exposes to the wiring layer
package module

import (
	phttp "batchcognito/internal/platform/net/http"
)

// Module is one service as seen by modkit and the CLI
// Ports returns the service's port set, usually a struct of interfaces.
// MountRoutes may be a no-op for services with nothing to report over HTTP.
type Module interface {
	Name() string
	Ports() any
	MountRoutes(r phttp.Router)
}
