package animation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/coordinator"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/telemetry"
)

// MockSubmitter records submitted frames and turn-off calls.
type MockSubmitter struct {
	mu        sync.Mutex
	frames    []glyph.Frame
	turnOffs  int
	submitErr error
	submitted chan struct{}
}

func newMockSubmitter() *MockSubmitter {
	return &MockSubmitter{submitted: make(chan struct{}, 256)}
}

func (m *MockSubmitter) Submit(frame glyph.Frame) error {
	m.mu.Lock()
	m.frames = append(m.frames, frame)
	err := m.submitErr
	m.mu.Unlock()
	select {
	case m.submitted <- struct{}{}:
	default:
	}
	return err
}

func (m *MockSubmitter) TurnOff() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turnOffs++
	return nil
}

func (m *MockSubmitter) frameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

func (m *MockSubmitter) frame(i int) glyph.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames[i]
}

func (m *MockSubmitter) turnOffCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turnOffs
}

func (m *MockSubmitter) waitFrames(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for m.frameCount() < n {
		select {
		case <-m.submitted:
		case <-deadline:
			t.Fatalf("timeout waiting for %d frames, have %d", n, m.frameCount())
		}
	}
}

// MockEngineSettings is a permissive Settings implementation with switches.
type MockEngineSettings struct {
	disabled map[coordinator.Feature]bool
	duration time.Duration
	pattern  string
	quiet    bool
}

func (m *MockEngineSettings) FeatureEnabled(f coordinator.Feature) bool {
	return !m.disabled[f]
}

func (m *MockEngineSettings) AnimationDuration(coordinator.Feature) time.Duration {
	return m.duration
}

func (m *MockEngineSettings) BreathingPattern() string { return m.pattern }

func (m *MockEngineSettings) QuietHoursActive(time.Time) bool { return m.quiet }

// MockBattery returns a fixed sample.
type MockBattery struct {
	sample telemetry.Sample
	err    error
}

func (m *MockBattery) Sample(context.Context) (telemetry.Sample, error) {
	return m.sample, m.err
}

func newTestEngine(kind glyph.DeviceKind) (*Engine, *MockSubmitter, *MockEngineSettings, *MockBattery) {
	submitter := newMockSubmitter()
	settings := &MockEngineSettings{disabled: map[coordinator.Feature]bool{}, duration: 100 * time.Millisecond}
	battery := &MockBattery{sample: telemetry.Sample{Percent: 50}}
	engine := New(Deps{
		Submitter: submitter,
		Profile:   glyph.Profile(kind),
		Settings:  settings,
		Battery:   battery,
	})
	return engine, submitter, settings, battery
}

func TestSequentialSweepSubmitsForwardHoldReverse(t *testing.T) {
	// The fallback profile keeps the run short: 3 channels.
	engine, submitter, _, _ := newTestEngine(glyph.KindUnknown)

	if err := engine.SequentialSweep(context.Background()); err != nil {
		t.Fatalf("SequentialSweep() error = %v", err)
	}

	// 3 forward + 1 hold + 3 reverse.
	if got := submitter.frameCount(); got != 7 {
		t.Fatalf("frames = %d, want 7", got)
	}

	first := submitter.frame(0)
	if first.Level(0) != glyph.MaxBrightness {
		t.Errorf("first frame channel 0 = %d, want max", first.Level(0))
	}
	if first.Level(2) != 0 {
		t.Errorf("first frame channel 2 = %d, want dark", first.Level(2))
	}

	hold := submitter.frame(3)
	for ch := 0; ch < 3; ch++ {
		if hold.Level(ch) != glyph.MaxBrightness {
			t.Errorf("hold frame channel %d = %d, want max", ch, hold.Level(ch))
		}
	}

	last := submitter.frame(6)
	if !last.IsDark() {
		t.Errorf("final sweep frame should be dark, got %v", last.Channels())
	}

	// Mandatory all-off cleanup on exit.
	if submitter.turnOffCount() != 1 {
		t.Errorf("turn-offs = %d, want 1", submitter.turnOffCount())
	}
	if engine.ActiveRuns() != 0 {
		t.Errorf("active runs = %d, want 0", engine.ActiveRuns())
	}
}

func TestStopAnimationsCancelsInFlightRun(t *testing.T) {
	// Phone2's 16-channel ring makes the sweep long enough to catch mid-run.
	engine, submitter, _, _ := newTestEngine(glyph.KindPhone2)

	done := make(chan error, 1)
	go func() {
		done <- engine.SequentialSweep(context.Background())
	}()

	submitter.waitFrames(t, 2)
	engine.StopAnimations()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancelled sweep returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not stop after cancellation")
	}

	if engine.ActiveRuns() != 0 {
		t.Errorf("active runs = %d, want 0", engine.ActiveRuns())
	}
	if submitter.turnOffCount() != 1 {
		t.Errorf("turn-offs = %d, want 1 (cleanup)", submitter.turnOffCount())
	}
}

func TestContextCancellationStopsRun(t *testing.T) {
	engine, submitter, _, _ := newTestEngine(glyph.KindPhone2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- engine.SequentialSweep(ctx)
	}()

	submitter.waitFrames(t, 1)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not observe context cancellation")
	}

	if submitter.turnOffCount() != 1 {
		t.Errorf("turn-offs = %d, want 1 (cleanup)", submitter.turnOffCount())
	}
}

func TestSubmitFailuresDoNotAbortRun(t *testing.T) {
	engine, submitter, _, _ := newTestEngine(glyph.KindUnknown)
	submitter.submitErr = errors.New("socket broke")

	if err := engine.SequentialSweep(context.Background()); err != nil {
		t.Fatalf("SequentialSweep() error = %v, want nil despite submit failures", err)
	}
	if got := submitter.frameCount(); got != 7 {
		t.Errorf("frames = %d, want all 7 steps attempted", got)
	}
}

func TestAlertBlinkCycleCount(t *testing.T) {
	engine, submitter, _, _ := newTestEngine(glyph.KindUnknown)

	if err := engine.AlertBlink(context.Background(), time.Second); err != nil {
		t.Fatalf("AlertBlink() error = %v", err)
	}

	// 1000 ms / 500 ms per cycle = 2 cycles = 4 frames.
	if got := submitter.frameCount(); got != 4 {
		t.Fatalf("frames = %d, want 4", got)
	}
	if on := submitter.frame(0); on.Level(0) != glyph.MaxBrightness {
		t.Errorf("on frame channel 0 = %d, want max", on.Level(0))
	}
	if off := submitter.frame(1); !off.IsDark() {
		t.Errorf("off frame should be dark, got %v", off.Channels())
	}
}

func TestAlertBlinkMinimumOneCycle(t *testing.T) {
	engine, submitter, _, _ := newTestEngine(glyph.KindUnknown)

	if err := engine.AlertBlink(context.Background(), 0); err != nil {
		t.Fatalf("AlertBlink() error = %v", err)
	}
	if got := submitter.frameCount(); got != 2 {
		t.Errorf("frames = %d, want 2 (one cycle)", got)
	}
}

func TestRunListenerReceivesLifecycle(t *testing.T) {
	engine, _, _, _ := newTestEngine(glyph.KindUnknown)

	var mu sync.Mutex
	var events []RunEvent
	engine.SetRunListener(func(ev RunEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	if err := engine.AlertBlink(context.Background(), 0); err != nil {
		t.Fatalf("AlertBlink() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("events = %d, want started + finished", len(events))
	}
	if events[0].Event != RunStarted || events[1].Event != RunFinished {
		t.Errorf("event order = %s, %s", events[0].Event, events[1].Event)
	}
	if events[0].RunID == "" || events[0].RunID != events[1].RunID {
		t.Errorf("run ids do not match: %q vs %q", events[0].RunID, events[1].RunID)
	}
	if events[1].Steps != 2 {
		t.Errorf("finished steps = %d, want 2", events[1].Steps)
	}
}
