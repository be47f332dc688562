package animation

import (
	"context"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
)

// SequentialSweep lights the primary zone cumulatively forward, holds the
// full bar briefly, then extinguishes it cumulatively in reverse. The
// supporting zone's brightness tracks sweep progress linearly.
func (e *Engine) SequentialSweep(ctx context.Context) error {
	run := e.begin("sequential-sweep")
	defer e.finish(run)

	channels := e.profile.Channels(e.profile.PrimaryZone())
	support := e.supportChannels()
	n := len(channels)

	// Forward: cumulative light-up, support tracks (i+1)/n.
	for i := 0; i < n; i++ {
		progress := float64(i+1) / float64(n)
		builder := glyph.NewFrameBuilder().
			SetChannels(channels[:i+1], glyph.MaxBrightness).
			SetChannels(support, int(progress*glyph.MaxBrightness))
		if !e.step(ctx, run, builder.Build(), e.tune.stepDelay) {
			return ctx.Err()
		}
	}

	// Hold at full brightness.
	full := glyph.NewFrameBuilder().
		SetChannels(channels, glyph.MaxBrightness).
		SetChannels(support, glyph.MaxBrightness).
		Build()
	if !e.step(ctx, run, full, e.tune.holdDelay) {
		return ctx.Err()
	}

	// Reverse: cumulative extinguish, support tracks back down.
	for i := n - 1; i >= 0; i-- {
		progress := float64(i) / float64(n)
		builder := glyph.NewFrameBuilder().
			SetChannels(channels[:i], glyph.MaxBrightness).
			SetChannels(support, int(progress*glyph.MaxBrightness))
		if !e.step(ctx, run, builder.Build(), e.tune.stepDelay) {
			return ctx.Err()
		}
	}
	return nil
}

// supportChannels picks the zone that shadows sweep progress: the B zone
// where the variant has one, otherwise nothing.
func (e *Engine) supportChannels() []int {
	if e.profile.PrimaryZone() != glyph.ZoneB && e.profile.HasZone(glyph.ZoneB) {
		return e.profile.Channels(glyph.ZoneB)
	}
	return nil
}
