package animation

import (
	"context"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
)

// fadeStepDelay is the delay between fade-out steps of the random effects.
const fadeStepDelay = 40 * time.Millisecond

// rainDensity is the fraction of channels lit per matrix-rain repetition.
const rainDensity = 0.35

// MatrixRain lights a pseudo-random subset of channels each repetition and
// fades it out. Repetition count and fade steepness are per-variant tuning.
func (e *Engine) MatrixRain(ctx context.Context) error {
	run := e.begin("matrix-rain")
	defer e.finish(run)

	if !e.profile.Kind.IsRecognised() {
		return e.pulse(ctx, run, 2)
	}

	channels := e.profile.AllChannels()
	for rep := 0; rep < e.tune.randomReps; rep++ {
		var drops []int
		for _, ch := range channels {
			if e.randFloat() < rainDensity {
				drops = append(drops, ch)
			}
		}
		if len(drops) == 0 {
			drops = append(drops, channels[e.randIntn(len(channels))])
		}
		if err := e.fadeOut(ctx, run, drops); err != nil {
			return err
		}
	}
	return nil
}

// Fireworks bursts from a random launch channel: the burst expands outwards
// across its neighbours, then the whole burst fades.
func (e *Engine) Fireworks(ctx context.Context) error {
	run := e.begin("fireworks")
	defer e.finish(run)

	if !e.profile.Kind.IsRecognised() {
		return e.pulse(ctx, run, 2)
	}

	channels := e.profile.AllChannels()
	n := len(channels)

	for rep := 0; rep < e.tune.randomReps; rep++ {
		center := e.randIntn(n)
		radius := 1 + e.randIntn(3)

		// Expansion: light the burst outward from the centre.
		var burst []int
		for r := 0; r <= radius; r++ {
			builder := glyph.NewFrameBuilder()
			for d := -r; d <= r; d++ {
				idx := center + d
				if idx < 0 || idx >= n {
					continue
				}
				builder.SetChannel(channels[idx], glyph.MaxBrightness)
				if r == radius {
					burst = append(burst, channels[idx])
				}
			}
			if !e.step(ctx, run, builder.Build(), fadeStepDelay) {
				return ctx.Err()
			}
		}

		if err := e.fadeOut(ctx, run, burst); err != nil {
			return err
		}
	}
	return nil
}

// Helix walks two counter-rotating points through the array with a short
// fading tail, like the two strands of a double helix.
func (e *Engine) Helix(ctx context.Context) error {
	run := e.begin("helix")
	defer e.finish(run)

	if !e.profile.Kind.IsRecognised() {
		return e.pulse(ctx, run, 2)
	}

	channels := e.profile.AllChannels()
	n := len(channels)
	const tail = 3

	for rep := 0; rep < e.tune.randomReps; rep++ {
		phase := e.randIntn(n)
		for step := 0; step < n; step++ {
			builder := glyph.NewFrameBuilder()
			for t := 0; t < tail; t++ {
				level := glyph.MaxBrightness * (tail - t) / tail
				forward := (phase + step - t + n) % n
				backward := (phase + n - 1 - step + t + n) % n
				builder.SetChannel(channels[forward], level)
				builder.SetChannel(channels[backward], level)
			}
			if !e.step(ctx, run, builder.Build(), e.tune.waveDelay) {
				return ctx.Err()
			}
		}
	}
	return nil
}

// fadeOut dims the given channels from full brightness to dark over the
// per-variant number of fade steps.
func (e *Engine) fadeOut(ctx context.Context, run *Run, channels []int) error {
	steps := e.tune.fadeSteps
	for s := steps; s >= 0; s-- {
		level := glyph.MaxBrightness * s / steps
		frame := glyph.NewFrameBuilder().SetChannels(channels, level).Build()
		if !e.step(ctx, run, frame, fadeStepDelay) {
			return ctx.Err()
		}
	}
	return nil
}
