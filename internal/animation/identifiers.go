package animation

import (
	"context"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/coordinator"
)

// Animation identifiers. This vocabulary is part of the persisted-preference
// contract and must remain stable across releases.
const (
	IDSweep     = "C1"
	IDWave      = "WAVE"
	IDBeedah    = "BEEDAH"
	IDPulse     = "PULSE"
	IDLock      = "LOCK"
	IDSpiral    = "SPIRAL"
	IDHeartbeat = "HEARTBEAT"
	IDMatrix    = "MATRIX"
	IDFireworks = "FIREWORKS"
	IDDNA       = "DNA"
)

// Identifiers lists the full stable vocabulary.
func Identifiers() []string {
	return []string{
		IDSweep, IDWave, IDBeedah, IDPulse, IDLock,
		IDSpiral, IDHeartbeat, IDMatrix, IDFireworks, IDDNA,
	}
}

// alertClass features are gated by quiet hours.
func alertClass(feature coordinator.Feature) bool {
	return feature == coordinator.FeatureGuardAlarm || feature == coordinator.FeatureLowBattery
}

// RunIdentifier dispatches a string identifier to its animation entrypoint
// on behalf of a feature.
//
// Guards: the feature must be globally enabled, the host device must be a
// recognised kind, and alert-class features respect quiet hours. When any
// guard fails the call returns immediately with no hardware interaction.
//
// An unrecognised identifier falls back to the sequential sweep — except in
// the low-battery context, where it falls back to the generic pulse run for
// the feature's configured duration.
func (e *Engine) RunIdentifier(ctx context.Context, feature coordinator.Feature, id string) error {
	if !e.settings.FeatureEnabled(feature) {
		e.logger.Debug("animation skipped, feature disabled", "feature", feature, "id", id)
		return nil
	}
	if !e.profile.Kind.IsRecognised() {
		e.logger.Debug("animation skipped, unrecognised device", "kind", e.profile.Kind)
		return nil
	}
	if alertClass(feature) && e.settings.QuietHoursActive(time.Now()) {
		e.logger.Debug("animation skipped, quiet hours", "feature", feature, "id", id)
		return nil
	}

	switch id {
	case IDSweep:
		return e.SequentialSweep(ctx)
	case IDWave:
		return e.Wave(ctx)
	case IDBeedah:
		return e.Breathing(ctx, breathingPatternByName(e.settings.BreathingPattern()))
	case IDPulse:
		return e.AlertBlink(ctx, e.settings.AnimationDuration(feature))
	case IDLock:
		return e.LockShow(ctx)
	case IDSpiral:
		return e.Spiral(ctx)
	case IDHeartbeat:
		return e.Heartbeat(ctx)
	case IDMatrix:
		return e.MatrixRain(ctx)
	case IDFireworks:
		return e.Fireworks(ctx)
	case IDDNA:
		return e.Helix(ctx)
	default:
		if feature == coordinator.FeatureLowBattery {
			return e.AlertBlink(ctx, e.settings.AnimationDuration(feature))
		}
		e.logger.Debug("unknown animation identifier, using sweep", "id", id)
		return e.SequentialSweep(ctx)
	}
}
