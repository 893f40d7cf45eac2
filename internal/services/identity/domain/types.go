// Package domain holds the identity index: the point-in-time snapshot that
// maps normalized emails to opaque directory user ids
package domain

import (
	"fmt"
	"sort"

	"batchcognito/internal/core/directory"
	"batchcognito/internal/core/normalize"
)

// Resolution is the outcome of an index lookup
type Resolution uint8

const (
	// Unknown means no record carries the email
	Unknown Resolution = iota
	// Resolved means exactly one record carries the email
	Resolved
	// Ambiguous means two or more records normalize to the same email
	Ambiguous
)

// String implements fmt.Stringer
func (r Resolution) String() string {
	switch r {
	case Unknown:
		return "unknown"
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("resolution(%d)", uint8(r))
	}
}

// entry is either a single owner or a tombstone listing every claimant
type entry struct {
	userID    string
	claimants []string
	ambiguous bool
}

// Index is read-only after construction and safe for concurrent lookups
type Index struct {
	records []directory.Record
	byEmail map[string]entry
	nAmbig  int
}

// NewIndex builds the lookup table from records in order
// Records with an empty email are kept in the snapshot but never keyed
func NewIndex(records []directory.Record) *Index {
	ix := &Index{
		records: append([]directory.Record(nil), records...),
		byEmail: make(map[string]entry, len(records)),
	}
	for _, r := range records {
		key := normalize.Email(r.Email)
		if key == "" {
			continue
		}
		e, seen := ix.byEmail[key]
		switch {
		case !seen:
			ix.byEmail[key] = entry{userID: r.UserID, claimants: []string{r.UserID}}
		case e.ambiguous:
			e.claimants = append(e.claimants, r.UserID)
			ix.byEmail[key] = e
		default:
			ix.byEmail[key] = entry{claimants: append(e.claimants, r.UserID), ambiguous: true}
			ix.nAmbig++
		}
	}
	return ix
}

// Resolve looks up email after normalizing it; no I/O, no mutation
func (ix *Index) Resolve(email string) (string, Resolution) {
	if ix == nil {
		return "", Unknown
	}
	key := normalize.Email(email)
	if key == "" {
		return "", Unknown
	}
	e, ok := ix.byEmail[key]
	switch {
	case !ok:
		return "", Unknown
	case e.ambiguous:
		return "", Ambiguous
	default:
		return e.userID, Resolved
	}
}

// Claimants returns the user ids sharing email, for diagnostics on ambiguous keys
func (ix *Index) Claimants(email string) []string {
	if ix == nil {
		return nil
	}
	e, ok := ix.byEmail[normalize.Email(email)]
	if !ok {
		return nil
	}
	return append([]string(nil), e.claimants...)
}

// Records returns a copy of the snapshot in original order
func (ix *Index) Records() []directory.Record {
	if ix == nil {
		return nil
	}
	return append([]directory.Record(nil), ix.records...)
}

// Stats summarizes an index for logging
type Stats struct {
	Records   int `json:"records"`
	Keys      int `json:"keys"`
	Ambiguous int `json:"ambiguous"`
	NoEmail   int `json:"no_email"`
}

// Stats reports record and key counts
func (ix *Index) Stats() Stats {
	if ix == nil {
		return Stats{}
	}
	noEmail := 0
	for _, r := range ix.records {
		if normalize.Email(r.Email) == "" {
			noEmail++
		}
	}
	return Stats{
		Records:   len(ix.records),
		Keys:      len(ix.byEmail),
		Ambiguous: ix.nAmbig,
		NoEmail:   noEmail,
	}
}

// AmbiguousEmails lists every tombstoned key, sorted
func (ix *Index) AmbiguousEmails() []string {
	if ix == nil {
		return nil
	}
	out := make([]string, 0, ix.nAmbig)
	for k, e := range ix.byEmail {
		if e.ambiguous {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
