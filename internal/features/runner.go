package features

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/coordinator"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/mqtt"
)

// Guard alarm pacing. The alarm repeats until disarmed; the backoff only
// spaces out the repetitions, it never gives up.
const (
	guardInitialDelay = 250 * time.Millisecond
	guardMaxDelay     = 5 * time.Second
)

// lowBatteryHysteresis keeps the low-battery latch set until the level
// climbs clearly above the threshold, so a reading oscillating around it
// fires once, not repeatedly.
const lowBatteryHysteresis = 5

// Glyphs is the slice of the animation engine the runner drives.
type Glyphs interface {
	RunIdentifier(ctx context.Context, feature coordinator.Feature, id string) error
	BatteryLevel(ctx context.Context) error
}

// Lock is the slice of the feature coordinator the runner needs.
type Lock interface {
	Acquire(ctx context.Context, owner coordinator.Feature, timeout time.Duration) bool
	Release(owner coordinator.Feature)
}

// Subscriber is the slice of the MQTT client the runner needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger defines the logging interface for the runner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Deps holds the dependencies required by the runner.
type Deps struct {
	Lock       Lock
	Glyphs     Glyphs
	Settings   *Settings
	Subscriber Subscriber
	Logger     Logger
}

// Runner subscribes to phone events and triggers the matching features.
//
// Handlers never block the MQTT dispatch goroutine: each trigger acquires
// the LED lock and runs its animation on a goroutine of its own. A feature
// that cannot take the lock within the acquire timeout is simply skipped;
// there is no queueing.
type Runner struct {
	lock       Lock
	glyphs     Glyphs
	settings   *Settings
	subscriber Subscriber
	logger     Logger

	ctx context.Context

	lowLatched atomic.Bool

	guardMu     sync.Mutex
	guardActive bool
	guardStop   chan struct{}
}

// NewRunner creates a feature runner. Call Start to begin receiving events.
func NewRunner(deps Deps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Runner{
		lock:       deps.Lock,
		glyphs:     deps.Glyphs,
		settings:   deps.Settings,
		subscriber: deps.Subscriber,
		logger:     logger,
	}
}

// Start subscribes to the phone event and battery telemetry topics.
// The context bounds every animation the runner triggers; cancelling it
// stops the guard alarm loop as well.
func (r *Runner) Start(ctx context.Context) error {
	r.ctx = ctx

	topics := mqtt.Topics{}
	subscriptions := map[string]mqtt.MessageHandler{
		topics.PhoneEvent("shake"):    r.handleShake,
		topics.PhoneEvent("unlock"):   r.handleUnlock,
		topics.PhoneEvent("usb"):      r.handleUSB,
		topics.PhoneEvent("charging"): r.handleCharging,
		topics.BatteryTelemetry():     r.handleBattery,
	}
	for topic, handler := range subscriptions {
		if err := r.subscriber.Subscribe(topic, 1, handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
	}

	r.logger.Info("feature runner started")
	return nil
}

// trigger runs one animation under the LED lock on its own goroutine.
func (r *Runner) trigger(feature coordinator.Feature, animate func(ctx context.Context) error) {
	if !r.settings.FeatureEnabled(feature) {
		r.logger.Debug("feature disabled", "feature", feature)
		return
	}

	go func() {
		if !r.lock.Acquire(r.ctx, feature, coordinator.DefaultAcquireTimeout) {
			r.logger.Debug("feature could not take LED lock", "feature", feature)
			return
		}
		defer r.lock.Release(feature)

		if err := animate(r.ctx); err != nil {
			r.logger.Warn("feature animation failed", "feature", feature, "error", err)
		}
	}()
}

// handleShake shows the battery level on a shake gesture.
func (r *Runner) handleShake(_ string, _ []byte) error {
	r.trigger(coordinator.FeatureShakePeek, r.glyphs.BatteryLevel)
	return nil
}

// handleUnlock plays the unlock show.
func (r *Runner) handleUnlock(_ string, _ []byte) error {
	r.trigger(coordinator.FeatureUnlockShow, func(ctx context.Context) error {
		return r.glyphs.RunIdentifier(ctx, coordinator.FeatureUnlockShow,
			r.settings.AnimationID(coordinator.FeatureUnlockShow))
	})
	return nil
}

// handleUSB arms or disarms the guard alarm on cable changes.
func (r *Runner) handleUSB(topic string, payload []byte) error {
	var event struct {
		Connected bool `json:"connected"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("parsing usb event on %s: %w", topic, err)
	}

	if event.Connected {
		r.stopGuard()
		return nil
	}
	r.startGuard()
	return nil
}

// handleCharging plays the charging story when the cable goes in.
func (r *Runner) handleCharging(topic string, payload []byte) error {
	var event struct {
		Charging bool `json:"charging"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("parsing charging event on %s: %w", topic, err)
	}
	if !event.Charging {
		return nil
	}

	// Plugging in also clears any pending low-battery latch.
	r.lowLatched.Store(false)

	r.trigger(coordinator.FeatureChargingStory, r.glyphs.BatteryLevel)
	return nil
}

// handleBattery fires the low-battery alert when the level crosses the
// threshold. The latch guarantees one alert per descent.
func (r *Runner) handleBattery(topic string, payload []byte) error {
	var reading struct {
		Percent  int  `json:"percent"`
		Charging bool `json:"charging"`
	}
	if err := json.Unmarshal(payload, &reading); err != nil {
		return fmt.Errorf("parsing battery reading on %s: %w", topic, err)
	}

	threshold := r.settings.LowBatteryThreshold()

	if reading.Charging || reading.Percent > threshold+lowBatteryHysteresis {
		r.lowLatched.Store(false)
		return nil
	}

	if reading.Percent > threshold {
		return nil
	}

	if !r.lowLatched.CompareAndSwap(false, true) {
		return nil
	}

	r.logger.Info("battery below threshold", "percent", reading.Percent, "threshold", threshold)
	r.trigger(coordinator.FeatureLowBattery, func(ctx context.Context) error {
		return r.glyphs.RunIdentifier(ctx, coordinator.FeatureLowBattery,
			r.settings.AnimationID(coordinator.FeatureLowBattery))
	})
	return nil
}

// startGuard begins the repeating guard alarm, if not already running.
func (r *Runner) startGuard() {
	if !r.settings.FeatureEnabled(coordinator.FeatureGuardAlarm) {
		return
	}

	r.guardMu.Lock()
	if r.guardActive {
		r.guardMu.Unlock()
		return
	}
	r.guardActive = true
	stop := make(chan struct{})
	r.guardStop = stop
	r.guardMu.Unlock()

	r.logger.Info("guard alarm armed")
	go r.guardLoop(stop)
}

// stopGuard halts the guard alarm loop.
func (r *Runner) stopGuard() {
	r.guardMu.Lock()
	defer r.guardMu.Unlock()
	if !r.guardActive {
		return
	}
	close(r.guardStop)
	r.guardActive = false
	r.logger.Info("guard alarm disarmed")
}

// guardLoop repeats the alarm animation until disarmed. The delay between
// repetitions doubles up to guardMaxDelay; the loop itself never exits on
// its own.
func (r *Runner) guardLoop(stop <-chan struct{}) {
	delay := guardInitialDelay
	for {
		select {
		case <-stop:
			return
		case <-r.ctx.Done():
			return
		default:
		}

		if r.lock.Acquire(r.ctx, coordinator.FeatureGuardAlarm, coordinator.DefaultAcquireTimeout) {
			err := r.glyphs.RunIdentifier(r.ctx, coordinator.FeatureGuardAlarm,
				r.settings.AnimationID(coordinator.FeatureGuardAlarm))
			r.lock.Release(coordinator.FeatureGuardAlarm)
			if err != nil {
				r.logger.Warn("guard alarm run failed", "error", err)
			}
		}

		select {
		case <-stop:
			return
		case <-r.ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > guardMaxDelay {
			delay = guardMaxDelay
		}
	}
}
