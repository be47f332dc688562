package animation

import (
	"context"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
)

// Spiral needs a ring of at least this many channels to read as rotation;
// smaller variants fall back to the generic pulse.
const spiralMinRing = 8

// spiralArc is the width of the rotating lit arc, as a fraction of the ring.
const spiralArc = 0.25

// Spiral rotates a fading arc of light around the C ring, two full turns.
// Variants whose ring is too small run the generic pulse instead.
func (e *Engine) Spiral(ctx context.Context) error {
	run := e.begin("spiral")
	defer e.finish(run)

	ring := e.profile.Channels(glyph.ZoneC)
	if len(ring) < spiralMinRing {
		return e.pulse(ctx, run, 2)
	}

	n := len(ring)
	arc := int(float64(n) * spiralArc)
	if arc < 2 {
		arc = 2
	}

	for step := 0; step < 2*n; step++ {
		builder := glyph.NewFrameBuilder()
		head := step % n
		for offset := 0; offset < arc; offset++ {
			// Trailing fade: full at the head, dimming linearly behind it.
			level := glyph.MaxBrightness * (arc - offset) / arc
			builder.SetChannel(ring[(head-offset+n)%n], level)
		}
		if !e.step(ctx, run, builder.Build(), e.tune.stepDelay) {
			return ctx.Err()
		}
	}
	return nil
}

// Heartbeat timing: two quick beats, then a rest.
const (
	heartbeatBeat = 90 * time.Millisecond
	heartbeatGap  = 70 * time.Millisecond
	heartbeatRest = 550 * time.Millisecond
	heartbeatReps = 4
)

// Heartbeat plays a lub-dub double pulse on the whole array: first beat at
// full brightness, the echo slightly dimmer, then a rest.
func (e *Engine) Heartbeat(ctx context.Context) error {
	run := e.begin("heartbeat")
	defer e.finish(run)

	channels := e.profile.AllChannels()
	lub := glyph.NewFrameBuilder().SetChannels(channels, glyph.MaxBrightness).Build()
	dub := glyph.NewFrameBuilder().SetChannels(channels, glyph.MaxBrightness*3/4).Build()
	off := glyph.DarkFrame(channels)

	for i := 0; i < heartbeatReps; i++ {
		if !e.step(ctx, run, lub, heartbeatBeat) {
			return ctx.Err()
		}
		if !e.step(ctx, run, off, heartbeatGap) {
			return ctx.Err()
		}
		if !e.step(ctx, run, dub, heartbeatBeat) {
			return ctx.Err()
		}
		if !e.step(ctx, run, off, heartbeatRest) {
			return ctx.Err()
		}
	}
	return nil
}
