package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/mqtt"
)

// ErrNoSample is returned when no battery reading has arrived yet.
var ErrNoSample = errors.New("telemetry: no battery sample received")

// Sample is one battery telemetry reading.
type Sample struct {
	Percent  int       `json:"percent"`
	Charging bool      `json:"charging"`
	At       time.Time `json:"at"`
}

// Source provides the most recent battery reading.
type Source interface {
	Sample(ctx context.Context) (Sample, error)
}

// Unavailable is a Source with no telemetry feed behind it; Sample always
// returns ErrNoSample. Used when the local MQTT bus is disabled so battery
// animations degrade to an error instead of a nil dereference.
type Unavailable struct{}

// Sample always returns ErrNoSample.
func (Unavailable) Sample(context.Context) (Sample, error) {
	return Sample{}, ErrNoSample
}

// Logger defines the logging interface for telemetry sources.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Subscriber is the slice of the MQTT client the source needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// MQTTSource caches battery readings published on the local MQTT bus.
//
// Payloads are JSON: {"percent": 87, "charging": true}. The cached sample
// is stamped with arrival time; readings out of the [0, 100] range are
// clamped rather than rejected.
type MQTTSource struct {
	subscriber Subscriber
	logger     Logger

	mu     sync.RWMutex
	latest Sample
	seen   bool
}

// NewMQTTSource creates a battery source over the given subscriber.
// Call Start to begin receiving readings.
func NewMQTTSource(subscriber Subscriber) *MQTTSource {
	return &MQTTSource{
		subscriber: subscriber,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the source.
func (s *MQTTSource) SetLogger(logger Logger) {
	s.logger = logger
}

// Start subscribes to the battery telemetry topic.
func (s *MQTTSource) Start() error {
	topic := mqtt.Topics{}.BatteryTelemetry()
	if err := s.subscriber.Subscribe(topic, 1, s.handleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return nil
}

// Sample returns the most recent cached reading.
// Returns ErrNoSample before the first reading arrives.
func (s *MQTTSource) Sample(_ context.Context) (Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.seen {
		return Sample{}, ErrNoSample
	}
	return s.latest, nil
}

// handleMessage parses and caches one battery reading.
func (s *MQTTSource) handleMessage(topic string, payload []byte) error {
	var reading struct {
		Percent  int  `json:"percent"`
		Charging bool `json:"charging"`
	}
	if err := json.Unmarshal(payload, &reading); err != nil {
		return fmt.Errorf("parsing battery payload on %s: %w", topic, err)
	}

	if reading.Percent < 0 {
		reading.Percent = 0
	}
	if reading.Percent > 100 {
		reading.Percent = 100
	}

	s.mu.Lock()
	s.latest = Sample{
		Percent:  reading.Percent,
		Charging: reading.Charging,
		At:       time.Now(),
	}
	s.seen = true
	s.mu.Unlock()

	s.logger.Debug("battery sample cached", "percent", reading.Percent, "charging", reading.Charging)
	return nil
}
