package animation

import (
	"context"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
)

// holdResubmit is how often the hold phases re-submit their frame so the
// run stays responsive to cancellation during long holds.
const holdResubmit = 200 * time.Millisecond

// secondHoldFloor is the computed minimum the box pattern's second hold
// dims the non-anchor channels to.
const secondHoldFloor = glyph.MaxBrightness / 16

// BreathingPattern describes the phase durations of one breathing exercise.
type BreathingPattern struct {
	Name   string
	Inhale time.Duration
	Hold   time.Duration
	Exhale time.Duration
	// SecondHold is the optional fourth phase. Only the box pattern has it;
	// it leaves exactly one channel at full brightness and the rest at the
	// computed minimum.
	SecondHold time.Duration
}

// PatternFourSevenEight is the 4-7-8 relaxation pattern: 4 s inhale,
// 7 s hold, 8 s exhale, no second hold.
func PatternFourSevenEight() BreathingPattern {
	return BreathingPattern{
		Name:   "4-7-8",
		Inhale: 4 * time.Second,
		Hold:   7 * time.Second,
		Exhale: 8 * time.Second,
	}
}

// PatternBox is box breathing: 4 s for each of the four phases.
func PatternBox() BreathingPattern {
	return BreathingPattern{
		Name:       "box",
		Inhale:     4 * time.Second,
		Hold:       4 * time.Second,
		Exhale:     4 * time.Second,
		SecondHold: 4 * time.Second,
	}
}

// breathingPatternByName resolves a configured pattern name. Anything other
// than "box" resolves to the 4-7-8 default.
func breathingPatternByName(name string) BreathingPattern {
	if name == "box" {
		return PatternBox()
	}
	return PatternFourSevenEight()
}

// Breathing runs the four-phase breathing animation on the primary zone:
// inhale (channel-by-channel linear ramp over the inhale duration), hold
// (full brightness, re-submitted every 200 ms), exhale (mirror of inhale),
// and the pattern's optional second hold.
func (e *Engine) Breathing(ctx context.Context, pattern BreathingPattern) error {
	run := e.begin("breathing-" + pattern.Name)
	defer e.finish(run)

	channels := e.profile.Channels(e.profile.PrimaryZone())
	n := len(channels)

	// Inhale: the zone fills channel by channel across the inhale duration.
	stepDelay := pattern.Inhale / time.Duration(n)
	for i := 0; i < n; i++ {
		frame := glyph.NewFrameBuilder().
			SetChannels(channels[:i+1], glyph.MaxBrightness).
			Build()
		if !e.step(ctx, run, frame, stepDelay) {
			return ctx.Err()
		}
	}

	// Hold: full brightness, re-submitted so cancellation stays responsive.
	full := glyph.NewFrameBuilder().SetChannels(channels, glyph.MaxBrightness).Build()
	if err := e.holdFrame(ctx, run, full, pattern.Hold); err != nil {
		return err
	}

	// Exhale: mirror of inhale.
	stepDelay = pattern.Exhale / time.Duration(n)
	for i := n - 1; i >= 0; i-- {
		frame := glyph.NewFrameBuilder().
			SetChannels(channels[:i], glyph.MaxBrightness).
			Build()
		if !e.step(ctx, run, frame, stepDelay) {
			return ctx.Err()
		}
	}

	// Second hold (box only): one anchor channel at full, the rest at the
	// computed minimum.
	if pattern.SecondHold > 0 {
		builder := glyph.NewFrameBuilder().SetChannels(channels, secondHoldFloor)
		builder.SetChannel(channels[0], glyph.MaxBrightness)
		if err := e.holdFrame(ctx, run, builder.Build(), pattern.SecondHold); err != nil {
			return err
		}
	}
	return nil
}

// holdFrame re-submits frame every 200 ms for the given duration.
func (e *Engine) holdFrame(ctx context.Context, run *Run, frame glyph.Frame, duration time.Duration) error {
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		wait := holdResubmit
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		if !e.step(ctx, run, frame, wait) {
			return ctx.Err()
		}
	}
	return nil
}
