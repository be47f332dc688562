package animation

import (
	"sync"
	"sync/atomic"
	"time"
)

// Run is the ephemeral per-invocation context of a single animation call.
//
// It carries the cancellation flag and step counter for that call and
// nothing else. A Run is created when an entrypoint starts, owned solely by
// the goroutine executing it, and discarded when the entrypoint returns.
// Cancel may be called from any goroutine; the flag is a single-writer
// atomic, never a shared plain boolean.
type Run struct {
	// ID uniquely identifies the run in logs and events.
	ID string
	// Animation is the name of the entrypoint that created the run.
	Animation string

	cancelled atomic.Bool
	running   atomic.Bool
	steps     atomic.Int64

	done chan struct{}
	once sync.Once
}

// Cancel requests cancellation. Idempotent and safe from any goroutine.
// The run observes it at its next step boundary or mid-wait.
func (r *Run) Cancel() {
	r.once.Do(func() {
		r.cancelled.Store(true)
		close(r.done)
	})
}

// Cancelled reports whether cancellation was requested.
func (r *Run) Cancelled() bool { return r.cancelled.Load() }

// Running reports whether the entrypoint is still executing.
func (r *Run) Running() bool { return r.running.Load() }

// Steps returns the number of frames submitted so far.
func (r *Run) Steps() int64 { return r.steps.Load() }

// RunEvent describes a run lifecycle transition for observers
// (event stream, run history).
type RunEvent struct {
	RunID     string    `json:"run_id"`
	Animation string    `json:"animation"`
	Event     string    `json:"event"` // "started", "finished", "cancelled"
	Steps     int64     `json:"steps"`
	At        time.Time `json:"at"`
}

// Run event names.
const (
	RunStarted   = "started"
	RunFinished  = "finished"
	RunCancelled = "cancelled"
)
