// Package jobs manages the discovery job lifecycle: enqueueing, the bounded
// worker pool, per-area serialization, and job history.
package jobs

import (
	"time"

	"github.com/jdoseph/rateyourcourt-sub000/internal/discovery"
)

// State is the lifecycle state of a discovery job. Waiting jobs may still be
// rejected by validation; active jobs run to a terminal state and are never
// cancelled mid-flight.
type State string

const (
	StateWaiting   State = "waiting"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether the state is an end state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job is one discovery job.
type Job struct {
	ID          string            `json:"id"`
	Params      discovery.Request `json:"params"`
	State       State             `json:"state"`
	EnqueuedAt  time.Time         `json:"enqueued_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Stats       *discovery.Stats  `json:"stats,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// clone returns a copy safe to hand to callers while the manager keeps
// mutating the original.
func (j *Job) clone() Job {
	out := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	if j.Stats != nil {
		s := *j.Stats
		out.Stats = &s
	}
	return out
}
