package coordinator

import (
	"context"
	"sync"
	"time"
)

// Feature identifies one of the fixed logical owners that may hold exclusive
// LED access. Features carry no state beyond identity.
type Feature string

// The closed set of features competing for the LED resource.
const (
	FeatureUnlockShow    Feature = "unlock-show"
	FeatureShakePeek     Feature = "shake-peek"
	FeatureGuardAlarm    Feature = "guard-alarm"
	FeatureChargingStory Feature = "charging-story"
	FeatureManualDemo    Feature = "manual-demo"
	FeatureLowBattery    Feature = "low-battery"
)

// FeatureNone is the zero value: no feature holds the lock.
const FeatureNone Feature = ""

// Features lists every known feature owner.
func Features() []Feature {
	return []Feature{
		FeatureUnlockShow,
		FeatureShakePeek,
		FeatureGuardAlarm,
		FeatureChargingStory,
		FeatureManualDemo,
		FeatureLowBattery,
	}
}

// Valid reports whether f names a known feature.
func (f Feature) Valid() bool {
	switch f {
	case FeatureUnlockShow, FeatureShakePeek, FeatureGuardAlarm,
		FeatureChargingStory, FeatureManualDemo, FeatureLowBattery:
		return true
	default:
		return false
	}
}

// DefaultAcquireTimeout is the acquisition wait used when callers pass zero.
const DefaultAcquireTimeout = 500 * time.Millisecond

// Sessions is the slice of the session manager the coordinator needs:
// a best-effort session ensure on acquire and an all-off on release.
type Sessions interface {
	ForceEnsureSession(ctx context.Context) bool
	TurnOff() error
}

// Logger defines the logging interface for the coordinator.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Coordinator is the mutual-exclusion gate over the physical LED resource.
//
// State machine: Free → Acquire(X) → Owned(X) → Release(X) → Free.
// A competing Acquire(Y) while Owned(X) blocks up to its timeout and then
// fails. Whichever waiter wins the underlying race acquires next; there is
// deliberately no FIFO ordering between waiters.
type Coordinator struct {
	sessions Sessions
	logger   Logger

	// slot is the exclusive lock: holding the single token means owning the
	// hardware. A channel (rather than sync.Mutex) makes the acquisition
	// interruptible by timeout and context.
	slot chan struct{}

	mu    sync.Mutex
	owner Feature
}

// New creates a coordinator over the given session manager slice.
func New(sessions Sessions) *Coordinator {
	return &Coordinator{
		sessions: sessions,
		logger:   noopLogger{},
		slot:     make(chan struct{}, 1),
	}
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger Logger) {
	c.logger = logger
}

// Acquire attempts to take exclusive ownership of the LED resource for owner,
// waiting up to timeout (DefaultAcquireTimeout if zero).
//
// On success it records the owner and makes a best-effort attempt to ensure
// a hardware session is active; failure to ensure a session does NOT fail
// the acquire — the caller holds the lock regardless and must verify session
// state itself before driving hardware. On timeout it returns false with no
// side effects.
func (c *Coordinator) Acquire(ctx context.Context, owner Feature, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c.slot <- struct{}{}:
	case <-timer.C:
		c.logger.Debug("acquire timed out", "feature", owner, "timeout", timeout)
		return false
	case <-ctx.Done():
		return false
	}

	c.mu.Lock()
	c.owner = owner
	c.mu.Unlock()

	if ok := c.sessions.ForceEnsureSession(ctx); !ok {
		c.logger.Warn("lock granted without an active session", "feature", owner)
	}

	c.logger.Debug("lock acquired", "feature", owner)
	return true
}

// Release gives up ownership held by owner.
//
// It is a no-op unless owner is the currently recorded holder, guarding
// against a stale or duplicate release clobbering a different feature's
// ownership. On a real release the holder is cleared, the lock freed, and
// every channel forced off.
func (c *Coordinator) Release(owner Feature) {
	c.mu.Lock()
	if c.owner != owner {
		c.mu.Unlock()
		c.logger.Debug("ignoring release from non-holder", "feature", owner)
		return
	}
	c.owner = FeatureNone
	c.mu.Unlock()

	<-c.slot

	if err := c.sessions.TurnOff(); err != nil {
		c.logger.Warn("turn-off on release failed", "error", err)
	}
	c.logger.Debug("lock released", "feature", owner)
}

// Owner returns the current holder, or FeatureNone when free.
func (c *Coordinator) Owner() Feature {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}
