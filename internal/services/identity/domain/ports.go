package domain

import (
	"context"
	"io"
	"time"

	"batchcognito/internal/core/directory"
)

// BuildOptions tunes a paginated walk of the directory
type BuildOptions struct {
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
}

// SyncResult describes a completed sync
type SyncResult struct {
	Pages int
	Stats Stats
	Dest  string
}

// BuilderPort walks every page of a directory into an ordered record list
type BuilderPort interface {
	Build(ctx context.Context, lister directory.Lister, opts BuildOptions) ([]directory.Record, error)
}

// SyncPort builds the index and writes it to a file (atomic replace) or a stream
type SyncPort interface {
	SyncToFile(ctx context.Context, path string) (SyncResult, error)
	SyncToWriter(ctx context.Context, w io.Writer) (SyncResult, error)
}

// LoaderPort reads a persisted snapshot back into a lookup index
type LoaderPort interface {
	LoadIndex(ctx context.Context, path string) (*Index, error)
}
