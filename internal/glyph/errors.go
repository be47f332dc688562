package glyph

import "errors"

// Hardware error taxonomy.
//
// Callers classify failures with errors.Is (or Classify) rather than string
// matching. The session manager recovers ErrSessionNotActive and
// ErrServiceNotConnected automatically; anything else is fatal to the
// current session.
var (
	// ErrSessionNotActive is returned when a hardware call requires an open
	// session and none is open.
	ErrSessionNotActive = errors.New("glyph: session not active")

	// ErrServiceNotConnected is returned when the process is not bound to the
	// hardware service at all.
	ErrServiceNotConnected = errors.New("glyph: service not connected")

	// ErrFrameSubmission is returned when submitting a single frame fails.
	// Animation loops treat it as non-fatal: log and continue.
	ErrFrameSubmission = errors.New("glyph: frame submission failed")
)

// FailureClass buckets a hardware error for recovery decisions.
type FailureClass int

const (
	// FailureSession means the session dropped; reopening it should recover.
	FailureSession FailureClass = iota
	// FailureConnection means the service binding itself is gone; a full
	// re-initialise is needed.
	FailureConnection
	// FailureOther is everything else and is fatal to the current session.
	FailureOther
)

// Classify buckets err into the recovery taxonomy.
func Classify(err error) FailureClass {
	switch {
	case errors.Is(err, ErrSessionNotActive):
		return FailureSession
	case errors.Is(err, ErrServiceNotConnected):
		return FailureConnection
	default:
		return FailureOther
	}
}
