// Package modkit provides module wiring and core deps
package modkit

import (
	"batchcognito/internal/core/directory"
	"batchcognito/internal/platform/config"
	"batchcognito/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	Dir directory.Client
}

// HasDirectory reports whether a directory client was wired
// sync and the group commands need one; config-only tests do not
func (d Deps) HasDirectory() bool { return d.Dir != nil }
