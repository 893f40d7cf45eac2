// Package domain defines the group mutation run: tasks, their terminal
// outcomes and the order-independent summary they fold into
package domain

import (
	"fmt"
	"sort"
	"time"

	"batchcognito/internal/core/directory"
)

// Task is one (email x group) membership change; tasks are independent
type Task struct {
	Seq   int                 `json:"seq"`
	Email string              `json:"email"`
	Group string              `json:"group"`
	Op    directory.Operation `json:"-"`
}

// Kind is the terminal state of a task
type Kind uint8

const (
	// Succeeded means the directory accepted the mutation
	Succeeded Kind = iota
	// UnknownUser means no index record carries the email
	UnknownUser
	// AmbiguousEmail means several index records carry the email
	AmbiguousEmail
	// Failed means a permanent error, or retries ran out
	Failed
	// Aborted means the run deadline passed before the task finished
	Aborted

	numKinds
)

var kindLabels = [numKinds]string{
	Succeeded:      "succeeded",
	UnknownUser:    "unknownUser",
	AmbiguousEmail: "ambiguousEmail",
	Failed:         "failed",
	Aborted:        "aborted",
}

// String returns the summary label
func (k Kind) String() string {
	if k < numKinds {
		return kindLabels[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText encodes the label
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Kinds lists every kind in declaration order
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// Outcome is recorded exactly once per task
type Outcome struct {
	Task     Task   `json:"task"`
	Kind     Kind   `json:"kind"`
	UserID   string `json:"user_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Attempts int    `json:"attempts"`
}

// OK reports whether the outcome is a success
func (o Outcome) OK() bool { return o.Kind == Succeeded }

// Counts tallies outcomes per kind
type Counts struct {
	Succeeded      int `json:"succeeded"`
	UnknownUser    int `json:"unknownUser"`
	AmbiguousEmail int `json:"ambiguousEmail"`
	Failed         int `json:"failed"`
	Aborted        int `json:"aborted"`
}

// Get returns the count for k
func (c Counts) Get(k Kind) int {
	switch k {
	case Succeeded:
		return c.Succeeded
	case UnknownUser:
		return c.UnknownUser
	case AmbiguousEmail:
		return c.AmbiguousEmail
	case Failed:
		return c.Failed
	case Aborted:
		return c.Aborted
	}
	return 0
}

// Add returns c with n more of kind k
func (c Counts) Add(k Kind, n int) Counts {
	switch k {
	case Succeeded:
		c.Succeeded += n
	case UnknownUser:
		c.UnknownUser += n
	case AmbiguousEmail:
		c.AmbiguousEmail += n
	case Failed:
		c.Failed += n
	case Aborted:
		c.Aborted += n
	}
	return c
}

// Total is the number of recorded outcomes
func (c Counts) Total() int {
	return c.Succeeded + c.UnknownUser + c.AmbiguousEmail + c.Failed + c.Aborted
}

// Summary is the run result: counts plus every non-success outcome ordered by task
type Summary struct {
	Counts   Counts    `json:"counts"`
	Problems []Outcome `json:"problems,omitempty"`
}

// OK reports whether every task succeeded; drives the exit code
func (s Summary) OK() bool { return s.Counts.Total() == s.Counts.Succeeded }

// Merge combines two summaries; commutative and associative
func (s Summary) Merge(o Summary) Summary {
	out := Summary{Counts: s.Counts}
	for _, k := range Kinds() {
		out.Counts = out.Counts.Add(k, o.Counts.Get(k))
	}
	if n := len(s.Problems) + len(o.Problems); n > 0 {
		out.Problems = make([]Outcome, 0, n)
		out.Problems = append(out.Problems, s.Problems...)
		out.Problems = append(out.Problems, o.Problems...)
		SortOutcomes(out.Problems)
	}
	return out
}

// SortOutcomes orders by task sequence, then by fields that break ties between runs
func SortOutcomes(outs []Outcome) {
	sort.SliceStable(outs, func(i, j int) bool {
		a, b := outs[i], outs[j]
		if a.Task.Seq != b.Task.Seq {
			return a.Task.Seq < b.Task.Seq
		}
		if a.Task.Email != b.Task.Email {
			return a.Task.Email < b.Task.Email
		}
		if a.Task.Group != b.Task.Group {
			return a.Task.Group < b.Task.Group
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Attempts != b.Attempts {
			return a.Attempts < b.Attempts
		}
		return a.Reason < b.Reason
	})
}

// Progress is a non-blocking view of a run in flight
type Progress struct {
	RunID   string        `json:"run_id,omitempty"`
	Op      string        `json:"op"`
	Total   int           `json:"total"`
	Done    int           `json:"done"`
	Counts  Counts        `json:"counts"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Remaining is the number of tasks without an outcome yet
func (p Progress) Remaining() int { return p.Total - p.Done }
