// Package version reports build metadata stamped in with -ldflags
package version

import (
	"fmt"
	"runtime/debug"
)

// BuildInfo holds version information about the binary
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Set via -ldflags "-X 'batchcognito/internal/core/version.version=v0.3.0'
// -X 'batchcognito/internal/core/version.commit=abcd' -X 'batchcognito/internal/core/version.date=2026-10-01'"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information, falling back to the module version
// recorded by `go install` when ldflags were not supplied
func Info() BuildInfo {
	v := version
	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi != nil && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	return BuildInfo{
		Service: "batchcognito",
		Version: v,
		Commit:  commit,
		Date:    date,
	}
}

// String renders the one-line --version output
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", b.Service, b.Version, b.Commit, b.Date)
}
