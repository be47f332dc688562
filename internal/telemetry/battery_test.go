package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/mqtt"
)

// MockSubscriber captures the subscription so tests can inject messages.
type MockSubscriber struct {
	topic   string
	handler mqtt.MessageHandler
	err     error
}

func (m *MockSubscriber) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	if m.err != nil {
		return m.err
	}
	m.topic = topic
	m.handler = handler
	return nil
}

func TestSampleBeforeFirstReading(t *testing.T) {
	source := NewMQTTSource(&MockSubscriber{})
	if err := source.Start(); err != nil {
		t.Fatal(err)
	}

	_, err := source.Sample(context.Background())
	if !errors.Is(err, ErrNoSample) {
		t.Errorf("Sample() before any reading = %v, want ErrNoSample", err)
	}
}

func TestSampleCachesLatestReading(t *testing.T) {
	sub := &MockSubscriber{}
	source := NewMQTTSource(sub)
	if err := source.Start(); err != nil {
		t.Fatal(err)
	}

	if err := sub.handler(sub.topic, []byte(`{"percent": 42, "charging": false}`)); err != nil {
		t.Fatal(err)
	}
	if err := sub.handler(sub.topic, []byte(`{"percent": 43, "charging": true}`)); err != nil {
		t.Fatal(err)
	}

	sample, err := source.Sample(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sample.Percent != 43 || !sample.Charging {
		t.Errorf("Sample() = %+v, want percent 43 charging", sample)
	}
	if sample.At.IsZero() {
		t.Error("sample missing arrival timestamp")
	}
}

func TestSampleClampsOutOfRange(t *testing.T) {
	tests := []struct {
		payload string
		want    int
	}{
		{`{"percent": -5}`, 0},
		{`{"percent": 150}`, 100},
	}
	for _, tt := range tests {
		sub := &MockSubscriber{}
		source := NewMQTTSource(sub)
		if err := source.Start(); err != nil {
			t.Fatal(err)
		}
		if err := sub.handler(sub.topic, []byte(tt.payload)); err != nil {
			t.Fatal(err)
		}
		sample, err := source.Sample(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if sample.Percent != tt.want {
			t.Errorf("payload %s: Percent = %d, want %d", tt.payload, sample.Percent, tt.want)
		}
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	sub := &MockSubscriber{}
	source := NewMQTTSource(sub)
	if err := source.Start(); err != nil {
		t.Fatal(err)
	}

	if err := sub.handler(sub.topic, []byte(`not json`)); err == nil {
		t.Error("malformed payload should return an error")
	}
	if _, err := source.Sample(context.Background()); !errors.Is(err, ErrNoSample) {
		t.Error("malformed payload should not populate the cache")
	}
}
