package modkit

import (
	"batchcognito/internal/modkit/module"
	phttp "batchcognito/internal/platform/net/http"
)

// Module is the common surface for modules that can mount routes and expose ports
// keep this tiny so modules stay decoupled
type Module = module.Module

// MountAll mounts every module's routes and registers its ports by name
func MountAll(r phttp.Router, mods ...Module) {
	for _, m := range mods {
		if m == nil {
			continue
		}
		if r != nil {
			m.MountRoutes(r)
		}
		module.Register(m.Name(), m.Ports())
	}
}
