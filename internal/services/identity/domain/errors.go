package domain

import "fmt"

// IndexBuildError reports a sync that could not walk every page
// No partial index accompanies it
type IndexBuildError struct {
	PagesCompleted int
	Cause          error
}

func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("index build failed after %d page(s): %v", e.PagesCompleted, e.Cause)
}

// Unwrap exposes the underlying directory error
func (e *IndexBuildError) Unwrap() error { return e.Cause }
