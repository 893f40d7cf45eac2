package domain

import (
	"context"

	"batchcognito/internal/core/directory"
	identity "batchcognito/internal/services/identity/domain"
)

// Resolver maps an email to a user id; satisfied by the identity index
type Resolver interface {
	Resolve(email string) (string, identity.Resolution)
}

// ExecutorPort applies a bulk mutation and always returns a summary for a
// run that started; the error is reserved for requests that cannot start
type ExecutorPort interface {
	Run(ctx context.Context, ix Resolver, targets, groups []string, op directory.Operation) (Summary, error)
}

// ProgressPort exposes the running counts of the current or last run
type ProgressPort interface {
	Progress() (Progress, bool)
}

// TargetsPort reads the target email list
type TargetsPort interface {
	ReadTargets(ctx context.Context, path string) ([]string, error)
}
