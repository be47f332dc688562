package features

import (
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/animation"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/coordinator"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/config"
)

// Settings adapts the loaded configuration to the animation engine's
// read-only settings view. It is immutable after construction; a config
// reload means a new Settings.
type Settings struct {
	cfg *config.Config

	// quiet hours, pre-parsed to minutes since midnight
	quietEnabled bool
	quietStart   int
	quietEnd     int
}

// NewSettings creates a settings view over a validated config.
func NewSettings(cfg *config.Config) *Settings {
	s := &Settings{cfg: cfg}
	if cfg.QuietHours.Enabled {
		start, okStart := parseClock(cfg.QuietHours.Start)
		end, okEnd := parseClock(cfg.QuietHours.End)
		if okStart && okEnd {
			s.quietEnabled = true
			s.quietStart = start
			s.quietEnd = end
		}
	}
	return s
}

// feature returns the per-feature block for a coordinator feature.
func (s *Settings) feature(f coordinator.Feature) config.FeatureConfig {
	switch f {
	case coordinator.FeatureUnlockShow:
		return s.cfg.Features.UnlockShow
	case coordinator.FeatureShakePeek:
		return s.cfg.Features.ShakePeek
	case coordinator.FeatureGuardAlarm:
		return s.cfg.Features.GuardAlarm
	case coordinator.FeatureChargingStory:
		return s.cfg.Features.ChargingStory
	case coordinator.FeatureManualDemo:
		return s.cfg.Features.ManualDemo
	case coordinator.FeatureLowBattery:
		return s.cfg.Features.LowBattery.FeatureConfig
	default:
		return config.FeatureConfig{}
	}
}

// FeatureEnabled reports whether the feature is globally enabled.
func (s *Settings) FeatureEnabled(f coordinator.Feature) bool {
	return s.feature(f).Enabled
}

// AnimationDuration returns the configured duration for the feature.
func (s *Settings) AnimationDuration(f coordinator.Feature) time.Duration {
	return s.feature(f).GetDuration()
}

// AnimationID returns the identifier configured for the feature, or the
// feature's built-in default when none is set.
func (s *Settings) AnimationID(f coordinator.Feature) string {
	if id := s.feature(f).Animation; id != "" {
		return id
	}
	switch f {
	case coordinator.FeatureUnlockShow:
		return animation.IDSweep
	case coordinator.FeatureGuardAlarm, coordinator.FeatureLowBattery:
		return animation.IDPulse
	default:
		return animation.IDSweep
	}
}

// BreathingPattern names the configured breathing pattern. Empty means
// the engine's default.
func (s *Settings) BreathingPattern() string {
	return s.cfg.Features.BreathingPattern
}

// LowBatteryThreshold returns the battery percentage at or below which
// the low-battery alert fires.
func (s *Settings) LowBatteryThreshold() int {
	return s.cfg.Features.LowBattery.ThresholdPercent
}

// QuietHoursActive reports whether the time falls inside the configured
// quiet window. Windows may cross midnight (e.g. 22:00 to 07:00).
func (s *Settings) QuietHoursActive(now time.Time) bool {
	if !s.quietEnabled {
		return false
	}
	minute := now.Hour()*60 + now.Minute()
	if s.quietStart <= s.quietEnd {
		return minute >= s.quietStart && minute < s.quietEnd
	}
	return minute >= s.quietStart || minute < s.quietEnd
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(value string) (int, bool) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// Verify the Settings adapter satisfies the engine's contract.
var _ animation.Settings = (*Settings)(nil)
