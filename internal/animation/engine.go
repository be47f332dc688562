package animation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/coordinator"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/telemetry"
)

// Submitter is the slice of the session manager the engine drives frames
// through. Submission is synchronous: a slow hardware call stalls the step
// that issued it, never a concurrent one.
type Submitter interface {
	Submit(frame glyph.Frame) error
	TurnOff() error
}

// Settings is the read-only settings collaborator consulted by the guards.
type Settings interface {
	// FeatureEnabled reports whether the feature is globally enabled.
	FeatureEnabled(feature coordinator.Feature) bool
	// AnimationDuration returns the configured duration for the feature.
	AnimationDuration(feature coordinator.Feature) time.Duration
	// BreathingPattern names the configured breathing pattern.
	BreathingPattern() string
	// QuietHoursActive reports whether alert-class animations are gated off.
	QuietHoursActive(now time.Time) bool
}

// Logger defines the logging interface for the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// tuning holds the hand-tuned per-variant timing constants. These are part
// of the hardware contract, not incidental.
type tuning struct {
	stepDelay  time.Duration // sequential sweep per-channel delay
	waveDelay  time.Duration // wave per-channel flash
	holdDelay  time.Duration // sweep full-brightness hold
	randomReps int           // matrix/fireworks/helix repetitions
	fadeSteps  int           // fade-out resolution for random effects
}

var tunings = map[glyph.DeviceKind]tuning{
	glyph.KindPhone1:      {stepDelay: 70 * time.Millisecond, waveDelay: 55 * time.Millisecond, holdDelay: 400 * time.Millisecond, randomReps: 10, fadeSteps: 6},
	glyph.KindPhone2:      {stepDelay: 40 * time.Millisecond, waveDelay: 35 * time.Millisecond, holdDelay: 400 * time.Millisecond, randomReps: 14, fadeSteps: 8},
	glyph.KindPhone2a:     {stepDelay: 45 * time.Millisecond, waveDelay: 40 * time.Millisecond, holdDelay: 350 * time.Millisecond, randomReps: 12, fadeSteps: 8},
	glyph.KindPhone2aPlus: {stepDelay: 45 * time.Millisecond, waveDelay: 40 * time.Millisecond, holdDelay: 350 * time.Millisecond, randomReps: 12, fadeSteps: 8},
	glyph.KindPhone3a:     {stepDelay: 35 * time.Millisecond, waveDelay: 30 * time.Millisecond, holdDelay: 300 * time.Millisecond, randomReps: 16, fadeSteps: 10},
	glyph.KindUnknown:     {stepDelay: 90 * time.Millisecond, waveDelay: 80 * time.Millisecond, holdDelay: 500 * time.Millisecond, randomReps: 6, fadeSteps: 4},
}

// Deps holds the dependencies required by the engine.
type Deps struct {
	Submitter Submitter
	Profile   *glyph.DeviceProfile
	Settings  Settings
	Battery   telemetry.Source
	Logger    Logger
}

// Engine is the library of glyph animation algorithms.
//
// Entrypoints are safe to call from any goroutine, but callers are expected
// to hold the feature coordinator's lock while one runs: the engine submits
// frames strictly sequentially within a run and relies on the coordinator
// for exclusivity between runs.
type Engine struct {
	submitter Submitter
	profile   *glyph.DeviceProfile
	settings  Settings
	battery   telemetry.Source
	logger    Logger
	tune      tuning

	mu   sync.Mutex
	runs map[string]*Run

	rngMu sync.Mutex
	rng   *rand.Rand

	listenerMu sync.RWMutex
	onRunEvent func(RunEvent)
}

// New creates an animation engine.
func New(deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	tune, ok := tunings[deps.Profile.Kind]
	if !ok {
		tune = tunings[glyph.KindUnknown]
	}
	return &Engine{
		submitter: deps.Submitter,
		profile:   deps.Profile,
		settings:  deps.Settings,
		battery:   deps.Battery,
		logger:    logger,
		tune:      tune,
		runs:      make(map[string]*Run),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRunListener registers a callback for run lifecycle events.
// Invoked synchronously from the run's goroutine; keep it fast.
func (e *Engine) SetRunListener(fn func(RunEvent)) {
	e.listenerMu.Lock()
	e.onRunEvent = fn
	e.listenerMu.Unlock()
}

// ActiveRuns returns the number of animations currently executing.
func (e *Engine) ActiveRuns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.runs)
}

// StopAnimations cancels every in-flight run. Each run performs its own
// all-off cleanup as it unwinds.
func (e *Engine) StopAnimations() {
	e.mu.Lock()
	runs := make([]*Run, 0, len(e.runs))
	for _, run := range e.runs {
		runs = append(runs, run)
	}
	e.mu.Unlock()

	for _, run := range runs {
		run.Cancel()
	}
	if len(runs) > 0 {
		e.logger.Info("stopping animations", "count", len(runs))
	}
}

// TurnOffAll forces every channel dark immediately.
func (e *Engine) TurnOffAll() error {
	return e.submitter.TurnOff()
}

// begin creates and registers the per-invocation run context.
func (e *Engine) begin(animation string) *Run {
	run := &Run{
		ID:        uuid.NewString(),
		Animation: animation,
		done:      make(chan struct{}),
	}
	run.running.Store(true)

	e.mu.Lock()
	e.runs[run.ID] = run
	e.mu.Unlock()

	e.logger.Debug("animation started", "run", run.ID, "animation", animation)
	e.fireRunEvent(run, RunStarted)
	return run
}

// finish is the mandatory cleanup on every exit path: force all channels
// off, clear the running flag, deregister the run. Deferred by every
// entrypoint so it holds even when a step fails.
func (e *Engine) finish(run *Run) {
	if err := e.submitter.TurnOff(); err != nil {
		e.logger.Warn("cleanup turn-off failed", "run", run.ID, "error", err)
	}
	run.running.Store(false)

	e.mu.Lock()
	delete(e.runs, run.ID)
	e.mu.Unlock()

	event := RunFinished
	if run.Cancelled() {
		event = RunCancelled
	}
	e.logger.Debug("animation finished", "run", run.ID, "animation", run.Animation, "steps", run.Steps(), "event", event)
	e.fireRunEvent(run, event)
}

func (e *Engine) fireRunEvent(run *Run, event string) {
	e.listenerMu.RLock()
	fn := e.onRunEvent
	e.listenerMu.RUnlock()
	if fn != nil {
		fn(RunEvent{
			RunID:     run.ID,
			Animation: run.Animation,
			Event:     event,
			Steps:     run.Steps(),
			At:        time.Now(),
		})
	}
}

// halted reports whether the run should stop before computing another step.
func (e *Engine) halted(ctx context.Context, run *Run) bool {
	return run.Cancelled() || ctx.Err() != nil
}

// submitStep submits one frame. Failures are logged and swallowed: the loop
// continues after its normal delay instead of aborting.
func (e *Engine) submitStep(run *Run, frame glyph.Frame) {
	if err := e.submitter.Submit(frame); err != nil {
		e.logger.Warn("frame submission failed mid-animation",
			"run", run.ID,
			"animation", run.Animation,
			"step", run.Steps(),
			"error", err,
		)
	}
	run.steps.Add(1)
}

// wait is the per-step suspension point. It sleeps for d and returns false
// if the run was cancelled or the context ended, observing both mid-wait.
func (e *Engine) wait(ctx context.Context, run *Run, d time.Duration) bool {
	if d <= 0 {
		return !e.halted(ctx, run)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-run.done:
		return false
	case <-timer.C:
	}
	return !e.halted(ctx, run)
}

// step submits the frame and performs the step wait in one call.
// Returns false when the loop should exit.
func (e *Engine) step(ctx context.Context, run *Run, frame glyph.Frame, delay time.Duration) bool {
	if e.halted(ctx, run) {
		return false
	}
	e.submitStep(run, frame)
	return e.wait(ctx, run, delay)
}

// randIntn returns a pseudo-random int in [0, n).
func (e *Engine) randIntn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

// randFloat returns a pseudo-random float64 in [0, 1).
func (e *Engine) randFloat() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}
