// Package repo persists identity snapshots as `username,email` CSV
package repo

import (
	"context"
	"io"

	"batchcognito/internal/core/directory"
)

// Header is the first line of every snapshot
const Header = "username,email"

// Repo reads and writes identity snapshots
type Repo interface {
	// Load parses a snapshot file in record order
	Load(ctx context.Context, path string) ([]directory.Record, error)
	// Persist replaces path atomically; on any error the previous file is untouched
	Persist(ctx context.Context, path string, records []directory.Record) error
	// Write streams a snapshot to w with no atomicity guarantee
	Write(ctx context.Context, w io.Writer, records []directory.Record) error
}

// NewFS returns the filesystem-backed snapshot repo
func NewFS() Repo { return fsRepo{} }

type fsRepo struct{}
