package animation

import (
	"context"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
)

// Wave illuminates channels strictly one at a time: a brief full-brightness
// flash, then off, moving sequentially through the zone order with the
// per-variant step delay.
func (e *Engine) Wave(ctx context.Context) error {
	run := e.begin("wave")
	defer e.finish(run)

	for _, ch := range e.profile.AllChannels() {
		frame := glyph.NewFrameBuilder().SetChannel(ch, glyph.MaxBrightness).Build()
		if !e.step(ctx, run, frame, e.tune.waveDelay) {
			return ctx.Err()
		}
	}
	return nil
}

// lockShowFlash is the closing full-array flash of the unlock show.
const lockShowFlash = 120 * time.Millisecond

// LockShow is the unlock light-show: each zone flashes in order, then the
// whole array flashes twice.
func (e *Engine) LockShow(ctx context.Context) error {
	run := e.begin("lock-show")
	defer e.finish(run)

	for _, r := range e.profile.Zones {
		frame := glyph.NewFrameBuilder().
			SetChannels(e.profile.Channels(r.Zone), glyph.MaxBrightness).
			Build()
		if !e.step(ctx, run, frame, e.tune.waveDelay*2) {
			return ctx.Err()
		}
	}

	all := e.profile.AllChannels()
	on := glyph.NewFrameBuilder().SetChannels(all, glyph.MaxBrightness).Build()
	off := glyph.DarkFrame(all)
	for i := 0; i < 2; i++ {
		if !e.step(ctx, run, on, lockShowFlash) {
			return ctx.Err()
		}
		if !e.step(ctx, run, off, lockShowFlash) {
			return ctx.Err()
		}
	}
	return nil
}
