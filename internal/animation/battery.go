package animation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/telemetry"
)

// Battery visualization constants.
const (
	// lowBatteryThreshold is the percentage below which the low regime kicks in.
	lowBatteryThreshold = 20

	// batteryStepDelay paces the modulation loop.
	batteryStepDelay = 150 * time.Millisecond

	// batterySteps is how many modulation steps one invocation shows.
	batterySteps = 30

	// lowBaseBrightness is the dimmer base of the low-battery bar.
	lowBaseBrightness = glyph.MaxBrightness / 4

	// normalBaseBrightness is the resting brightness of the normal bar.
	normalBaseBrightness = glyph.MaxBrightness * 3 / 5

	// accentBrightness is the decorative twinkle level on secondary zones.
	accentBrightness = glyph.MaxBrightness / 8
)

// breathingBarKinds are the variants whose normal-regime bar gently
// breathes instead of holding static.
var breathingBarKinds = map[glyph.DeviceKind]bool{
	glyph.KindPhone2:  true,
	glyph.KindPhone3a: true,
}

// litChannelCount computes how many channels of a zone a battery percentage
// fills: floor(zoneLen × percent / 100). Shared by every regime.
func litChannelCount(zoneLen, percent int) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return zoneLen * percent / 100
}

// BatteryLevel visualizes the current battery charge as a bar across the
// primary zone.
//
// The live telemetry is sampled exactly once per invocation. Three visually
// distinct regimes share the same lit-channel computation and differ only in
// how brightness is modulated over the step loop: charging pulses all lit
// channels in sync, low battery (<20 %) blinks slowly over a dimmer static
// bar, and normal shows a static or gently breathing bar with small accents
// on the secondary zones.
//
// On an unrecognised device kind the call returns immediately with no
// hardware interaction, matching the other entrypoints.
func (e *Engine) BatteryLevel(ctx context.Context) error {
	if !e.profile.Kind.IsRecognised() {
		e.logger.Debug("battery visualisation skipped, unrecognised device", "kind", e.profile.Kind)
		return nil
	}

	sample, err := e.battery.Sample(ctx)
	if err != nil {
		return fmt.Errorf("sampling battery telemetry: %w", err)
	}

	run := e.begin("battery-level")
	defer e.finish(run)

	zone := e.profile.Channels(e.profile.PrimaryZone())
	lit := zone[:litChannelCount(len(zone), sample.Percent)]

	modulate := e.batteryModulation(sample)
	accents := e.accentChannels()

	for step := 0; step < batterySteps; step++ {
		builder := glyph.NewFrameBuilder()
		builder.SetChannels(lit, modulate(step))

		// Decorative twinkle on the secondary zones, normal regime only.
		if !sample.Charging && sample.Percent >= lowBatteryThreshold && len(accents) > 0 {
			builder.SetChannel(accents[e.randIntn(len(accents))], accentBrightness)
		}

		if !e.step(ctx, run, builder.Build(), batteryStepDelay) {
			return ctx.Err()
		}
	}
	return nil
}

// batteryModulation returns the per-step brightness function for the
// sampled regime.
func (e *Engine) batteryModulation(sample telemetry.Sample) func(step int) int {
	switch {
	case sample.Charging:
		// Synchronized pulsing across all lit channels.
		return func(step int) int {
			phase := float64(step) * math.Pi / 10
			scale := 0.5 + 0.5*math.Sin(phase)
			return int(float64(glyph.MaxBrightness) * scale)
		}
	case sample.Percent < lowBatteryThreshold:
		// Slow blink overlay on a dimmer static bar.
		return func(step int) int {
			if step%8 < 4 {
				return lowBaseBrightness
			}
			return lowBaseBrightness / 3
		}
	default:
		if breathingBarKinds[e.profile.Kind] {
			// Gentle breathe around the resting brightness.
			return func(step int) int {
				phase := float64(step) * math.Pi / float64(batterySteps)
				scale := 0.85 + 0.15*math.Sin(phase*2)
				return int(float64(normalBaseBrightness) * scale)
			}
		}
		return func(int) int { return normalBaseBrightness }
	}
}

// accentChannels are the secondary-zone channels eligible for twinkles.
func (e *Engine) accentChannels() []int {
	primary := e.profile.PrimaryZone()
	var accents []int
	for _, r := range e.profile.Zones {
		if r.Zone == primary {
			continue
		}
		accents = append(accents, e.profile.Channels(r.Zone)...)
	}
	return accents
}
