package animation

import (
	"context"
	"testing"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/coordinator"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
)

func TestBreathingPatternByName(t *testing.T) {
	box := breathingPatternByName("box")
	if box.Name != "box" || box.SecondHold == 0 {
		t.Errorf("box pattern = %+v, want a second hold", box)
	}
	for _, name := range []string{"", "4-7-8", "not-a-pattern"} {
		p := breathingPatternByName(name)
		if p.Name != "4-7-8" || p.SecondHold != 0 {
			t.Errorf("breathingPatternByName(%q) = %+v, want the 4-7-8 default", name, p)
		}
	}
}

func TestBreathingBoxSecondHoldShape(t *testing.T) {
	// The fallback profile keeps the phases short: 3 channels.
	engine, submitter, _, _ := newTestEngine(glyph.KindUnknown)

	pattern := BreathingPattern{
		Name:       "box",
		Inhale:     3 * time.Millisecond,
		Hold:       10 * time.Millisecond,
		Exhale:     3 * time.Millisecond,
		SecondHold: 10 * time.Millisecond,
	}
	if err := engine.Breathing(context.Background(), pattern); err != nil {
		t.Fatalf("Breathing() error = %v", err)
	}

	// 3 inhale + hold + 3 exhale + second hold.
	if got := submitter.frameCount(); got < 8 {
		t.Fatalf("frames = %d, want at least 8", got)
	}

	// The final frame is the second hold: one anchor channel at full
	// brightness, every other channel at the computed minimum.
	last := submitter.frame(submitter.frameCount() - 1)
	if last.Level(0) != glyph.MaxBrightness {
		t.Errorf("anchor channel = %d, want max", last.Level(0))
	}
	for ch := 1; ch < 3; ch++ {
		if last.Level(ch) != secondHoldFloor {
			t.Errorf("channel %d = %d, want floor %d", ch, last.Level(ch), secondHoldFloor)
		}
	}

	if submitter.turnOffCount() != 1 {
		t.Errorf("turn-offs = %d, want 1", submitter.turnOffCount())
	}
}

func TestBreathingHoldResubmitsFrame(t *testing.T) {
	engine, submitter, _, _ := newTestEngine(glyph.KindUnknown)

	// A 450 ms hold spans two full 200 ms re-submission intervals.
	pattern := BreathingPattern{
		Name:   "4-7-8",
		Inhale: 3 * time.Millisecond,
		Hold:   450 * time.Millisecond,
		Exhale: 3 * time.Millisecond,
	}
	if err := engine.Breathing(context.Background(), pattern); err != nil {
		t.Fatalf("Breathing() error = %v", err)
	}

	// 3 inhale + at least 2 hold re-submissions + 3 exhale.
	if got := submitter.frameCount(); got < 8 {
		t.Errorf("frames = %d, want at least 8 (hold must re-submit)", got)
	}
}

func TestRunIdentifierBeedahUsesConfiguredPattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"", "breathing-4-7-8"},
		{"box", "breathing-box"},
	}
	for _, tt := range tests {
		t.Run("pattern "+tt.want, func(t *testing.T) {
			engine, submitter, settings, _ := newTestEngine(glyph.KindPhone2a)
			settings.pattern = tt.pattern
			names := captureRuns(engine)

			done := make(chan error, 1)
			go func() {
				done <- engine.RunIdentifier(context.Background(), coordinator.FeatureManualDemo, IDBeedah)
			}()

			submitter.waitFrames(t, 1)
			engine.StopAnimations()
			if err := <-done; err != nil {
				t.Fatalf("RunIdentifier() error = %v", err)
			}

			got := names()
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("runs = %v, want [%s]", got, tt.want)
			}
		})
	}
}
