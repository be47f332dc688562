package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
)

// State is the derived session state exposed to observers.
//
// It is computed from two independent booleans: bound (attached to the
// hardware service) and active (a session is open). A session cannot be
// open while unbound.
type State string

const (
	// StateUnbound means the process is not attached to the hardware service.
	StateUnbound State = "unbound"
	// StateBound means the service is attached but no session is open.
	StateBound State = "bound"
	// StateOpen means a session is open and frames may be submitted.
	StateOpen State = "open"
)

// Defaults for recovery and ensure-session timing.
const (
	defaultReconnectDelay = 1500 * time.Millisecond
	defaultEnsureTimeout  = 2 * time.Second
	defaultEnsurePoll     = 50 * time.Millisecond
)

// Logger defines the logging interface for the session manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config tunes manager timing. Zero values get defaults.
type Config struct {
	// ReconnectDelay is the fixed wait between tearing down local state and
	// re-initialising during a recovery sequence.
	ReconnectDelay time.Duration

	// EnsureTimeout bounds how long ForceEnsureSession waits for the bound
	// flag after kicking an initialise.
	EnsureTimeout time.Duration

	// EnsurePoll is the interval at which ForceEnsureSession re-checks the
	// bound flag.
	EnsurePoll time.Duration
}

// Listener receives session state transitions. Listeners are invoked
// outside the manager's lock; they may call back into the manager.
type Listener func(State)

// Manager owns the hardware binding and its session lifecycle.
//
// All methods are safe for concurrent use. Mutation of the binding is
// serialised through the manager's lock; nothing else in the daemon holds a
// reference to the binding.
type Manager struct {
	binding glyph.Binding
	kind    glyph.DeviceKind
	cfg     Config
	logger  Logger

	mu        sync.Mutex
	bound     bool
	active    bool
	listeners []Listener

	// recovering guards against stacked recovery sequences: a classified
	// failure triggers exactly one reconnect no matter how many calls fail
	// while it runs.
	recovering atomic.Bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a session manager for the given binding and device kind.
// The binding is not touched until Initialize is called.
func NewManager(binding glyph.Binding, kind glyph.DeviceKind, cfg Config) *Manager {
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.EnsureTimeout == 0 {
		cfg.EnsureTimeout = defaultEnsureTimeout
	}
	if cfg.EnsurePoll == 0 {
		cfg.EnsurePoll = defaultEnsurePoll
	}
	return &Manager{
		binding: binding,
		kind:    kind,
		cfg:     cfg,
		logger:  noopLogger{},
		done:    make(chan struct{}),
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// AddListener registers a callback for session state transitions.
// Listeners must be registered before Initialize.
func (m *Manager) AddListener(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// Kind returns the device kind the manager was created with.
func (m *Manager) Kind() glyph.DeviceKind { return m.kind }

// Initialize binds to the hardware service and registers the device kind.
//
// It is idempotent: if already bound it returns nil immediately. A session
// is never opened here; opening is always an explicit caller action.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.bound {
		m.mu.Unlock()
		return nil
	}

	if err := m.binding.Bind(ctx, m.onConnectivity); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("binding to glyph service: %w", err)
	}
	if err := m.binding.Register(m.kind); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("registering device kind %s: %w", m.kind, err)
	}

	m.bound = true
	notify := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info("bound to glyph service", "kind", m.kind)
	notify()
	return nil
}

// OpenSession opens an LED session. Opening an already-open session is a
// no-op success.
func (m *Manager) OpenSession() error {
	m.mu.Lock()
	if !m.bound {
		m.mu.Unlock()
		return glyph.ErrServiceNotConnected
	}
	if m.active {
		m.mu.Unlock()
		return nil
	}

	if err := m.binding.OpenSession(); err != nil {
		m.handleHardwareErrorLocked(err)
		m.mu.Unlock()
		return fmt.Errorf("opening session: %w", err)
	}

	m.active = true
	notify := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Debug("session opened")
	notify()
	return nil
}

// CloseSession closes the current session. Closing an already-closed
// session is a no-op success.
func (m *Manager) CloseSession() error {
	m.mu.Lock()
	if !m.bound || !m.active {
		m.mu.Unlock()
		return nil
	}

	if err := m.binding.CloseSession(); err != nil {
		m.handleHardwareErrorLocked(err)
		m.mu.Unlock()
		return fmt.Errorf("closing session: %w", err)
	}

	m.active = false
	notify := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Debug("session closed")
	notify()
	return nil
}

// ForceEnsureSession makes a best effort to end up with an open session.
//
// If unbound it kicks an initialise and waits for the bound flag at short
// poll intervals, bounded by the configured ensure timeout (2 s by default).
// If still unbound it gives up. Once bound it opens a session if none is
// open. Returns true iff a session is active on return.
func (m *Manager) ForceEnsureSession(ctx context.Context) bool {
	if !m.IsServiceConnected() {
		go func() {
			if err := m.Initialize(context.Background()); err != nil {
				m.logger.Warn("ensure-session initialise failed", "error", err)
			}
		}()

		deadline := time.NewTimer(m.cfg.EnsureTimeout)
		defer deadline.Stop()
		poll := time.NewTicker(m.cfg.EnsurePoll)
		defer poll.Stop()

		for !m.IsServiceConnected() {
			select {
			case <-ctx.Done():
				return false
			case <-deadline.C:
				return false
			case <-poll.C:
			}
		}
	}

	if !m.IsSessionActive() {
		if err := m.OpenSession(); err != nil {
			m.logger.Warn("ensure-session open failed", "error", err)
			return false
		}
	}
	return m.IsSessionActive()
}

// Toggle opens the session if closed and closes it if open.
// Returns the new active state.
func (m *Manager) Toggle() bool {
	if m.IsSessionActive() {
		if err := m.CloseSession(); err != nil {
			m.logger.Warn("toggle close failed", "error", err)
		}
	} else {
		if err := m.OpenSession(); err != nil {
			m.logger.Warn("toggle open failed", "error", err)
		}
	}
	return m.IsSessionActive()
}

// Submit replaces the entire LED state with the frame.
//
// Returns an error wrapping glyph.ErrFrameSubmission on failure. Classified
// session/connection failures additionally trigger one asynchronous recovery
// sequence; the caller only ever sees the submission error.
func (m *Manager) Submit(frame glyph.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.bound {
		return fmt.Errorf("%w: %w", glyph.ErrFrameSubmission, glyph.ErrServiceNotConnected)
	}
	if !m.active {
		return fmt.Errorf("%w: %w", glyph.ErrFrameSubmission, glyph.ErrSessionNotActive)
	}

	if err := m.binding.Submit(frame); err != nil {
		m.handleHardwareErrorLocked(err)
		return fmt.Errorf("%w: %w", glyph.ErrFrameSubmission, err)
	}
	return nil
}

// TurnOff forces every channel to zero. Safe to call with no open session;
// it is a no-op when unbound.
func (m *Manager) TurnOff() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.bound {
		return nil
	}
	if err := m.binding.TurnOff(); err != nil {
		m.handleHardwareErrorLocked(err)
		return fmt.Errorf("turning channels off: %w", err)
	}
	return nil
}

// IsServiceConnected reports whether the process is bound to the service.
func (m *Manager) IsServiceConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bound
}

// IsSessionActive reports whether a session is currently open.
func (m *Manager) IsSessionActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// State returns the derived session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// ForceReconnect unconditionally tears down local state and re-initialises.
// Intended for callers that detect repeated failures. The reconnect runs
// asynchronously; at most one recovery sequence is in flight at a time.
func (m *Manager) ForceReconnect() {
	m.logger.Info("forced reconnect requested")
	m.scheduleRecovery()
}

// Close tears down the binding and stops any pending recovery.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() { close(m.done) })

	m.mu.Lock()
	err := m.binding.Close()
	m.bound = false
	m.active = false
	notify := m.snapshotLocked()
	m.mu.Unlock()

	notify()
	return err
}

// onConnectivity handles asynchronous connected/disconnected notifications
// from the hardware service.
func (m *Manager) onConnectivity(connected bool) {
	if connected {
		m.mu.Lock()
		m.bound = true
		notify := m.snapshotLocked()
		m.mu.Unlock()
		m.logger.Info("glyph service connected")
		notify()
		return
	}

	m.mu.Lock()
	m.bound = false
	m.active = false
	notify := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Warn("glyph service disconnected")
	notify()
	m.scheduleRecovery()
}

// handleHardwareErrorLocked classifies a hardware error and reacts:
// session/connection failures get one asynchronous recovery, anything else
// is fatal to the current session (local cleanup, no retry).
//
// Callers must hold m.mu.
func (m *Manager) handleHardwareErrorLocked(err error) {
	switch glyph.Classify(err) {
	case glyph.FailureSession:
		m.logger.Warn("session dropped, scheduling recovery", "error", err)
		m.active = false
		m.scheduleRecovery()
	case glyph.FailureConnection:
		m.logger.Warn("service connection lost, scheduling recovery", "error", err)
		m.bound = false
		m.active = false
		m.scheduleRecovery()
	default:
		m.logger.Error("unrecoverable hardware error, closing session state", "error", err)
		m.bound = false
		m.active = false
	}
}

// scheduleRecovery starts the asynchronous teardown/delay/re-initialise
// sequence unless one is already running.
func (m *Manager) scheduleRecovery() {
	if !m.recovering.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer m.recovering.Store(false)

		m.mu.Lock()
		if err := m.binding.Close(); err != nil {
			m.logger.Debug("binding close during recovery", "error", err)
		}
		m.bound = false
		m.active = false
		notify := m.snapshotLocked()
		m.mu.Unlock()
		notify()

		select {
		case <-m.done:
			return
		case <-time.After(m.cfg.ReconnectDelay):
		}

		if err := m.Initialize(context.Background()); err != nil {
			m.logger.Error("recovery re-initialise failed", "error", err)
			return
		}
		m.logger.Info("recovery complete, service re-bound")
	}()
}

// stateLocked derives the session state. Callers must hold m.mu.
func (m *Manager) stateLocked() State {
	switch {
	case m.active:
		return StateOpen
	case m.bound:
		return StateBound
	default:
		return StateUnbound
	}
}

// snapshotLocked captures the current state and listener set and returns a
// function that fires the notifications. The returned function must be
// called after releasing m.mu so listeners can call back into the manager.
func (m *Manager) snapshotLocked() func() {
	state := m.stateLocked()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	return func() {
		for _, l := range listeners {
			l(state)
		}
	}
}
