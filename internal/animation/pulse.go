package animation

import (
	"context"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
)

// Pulse cycle halves: on for 250 ms, off for 250 ms.
const pulseHalfCycle = 250 * time.Millisecond

// AlertBlink is the alert-class pulse: the whole array flashes on/off for a
// number of cycles derived from the configured duration,
// cycles = floor(durationMs / 500), minimum 1.
func (e *Engine) AlertBlink(ctx context.Context, duration time.Duration) error {
	cycles := int(duration / (2 * pulseHalfCycle))
	if cycles < 1 {
		cycles = 1
	}
	run := e.begin("alert-blink")
	defer e.finish(run)
	return e.pulse(ctx, run, cycles)
}

// pulse runs n on/off cycles across every channel. It doubles as the
// reduced-channel fallback for variants without a specific implementation
// of a fancier animation.
func (e *Engine) pulse(ctx context.Context, run *Run, cycles int) error {
	channels := e.profile.AllChannels()
	on := glyph.NewFrameBuilder().SetChannels(channels, glyph.MaxBrightness).Build()
	off := glyph.DarkFrame(channels)

	for i := 0; i < cycles; i++ {
		if !e.step(ctx, run, on, pulseHalfCycle) {
			return ctx.Err()
		}
		if !e.step(ctx, run, off, pulseHalfCycle) {
			return ctx.Err()
		}
	}
	return nil
}
