// Package directory defines the two capabilities batchcognito needs from a
// user directory: paginated listing of identities and group mutation by
// opaque user id
package directory

import (
	"context"
	"fmt"
)

// Record is one identity as reported by the directory
// UserID is the unique handle; Email is not guaranteed unique and may be empty
type Record struct {
	UserID string
	Email  string
}

// Page is one listing response; Next is empty on the final page
type Page struct {
	Records []Record
	Next    string
}

// Operation is the group mutation to apply
type Operation uint8

const (
	// OpAdd adds a user to a group
	OpAdd Operation = iota + 1
	// OpRemove removes a user from a group
	OpRemove
)

// String implements fmt.Stringer
func (o Operation) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Valid reports whether o is a known operation
func (o Operation) Valid() bool { return o == OpAdd || o == OpRemove }

// Lister walks the directory one page at a time, starting from the empty cursor
type Lister interface {
	ListPage(ctx context.Context, cursor string) (Page, error)
}

// Mutator applies a single group membership change
// Errors are classified with internal/platform/errors codes so callers can
// tell throttling and transient failures from permanent ones
type Mutator interface {
	MutateGroup(ctx context.Context, userID, group string, op Operation) error
}

// Client is the full directory surface
type Client interface {
	Lister
	Mutator
}
