package mqtt

import "fmt"

// Topic prefixes for the glyphsharge MQTT namespace.
//
// Phone-side publishers (the companion app and the platform shim) emit
// under glyphsharge/phone/...; the daemon publishes its own state under
// glyphsharge/glyph/... and glyphsharge/system/....
const (
	// TopicPrefixPhone is the base for telemetry and events published by the phone side.
	TopicPrefixPhone = "glyphsharge/phone"

	// TopicPrefixGlyph is the base for topics published by the daemon.
	TopicPrefixGlyph = "glyphsharge/glyph"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "glyphsharge/system"
)

// Topics provides builders for glyphsharge MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.BatteryTelemetry() // "glyphsharge/phone/battery"
type Topics struct{}

// BatteryTelemetry returns the topic carrying battery readings.
//
// Example: glyphsharge/phone/battery
func (Topics) BatteryTelemetry() string {
	return fmt.Sprintf("%s/battery", TopicPrefixPhone)
}

// PhoneEvent returns the topic for a named phone event
// (shake, unlock, usb, charging).
//
// Example: glyphsharge/phone/event/shake
func (Topics) PhoneEvent(event string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixPhone, event)
}

// AllPhoneEvents returns a pattern matching every phone event.
//
// Pattern: glyphsharge/phone/event/+
func (Topics) AllPhoneEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefixPhone)
}

// GlyphRunEvents returns the topic where animation run lifecycle
// events (started, finished, cancelled) are published.
//
// Example: glyphsharge/glyph/run
func (Topics) GlyphRunEvents() string {
	return fmt.Sprintf("%s/run", TopicPrefixGlyph)
}

// GlyphFeature returns the topic for a feature's activity state.
//
// Example: glyphsharge/glyph/feature/unlock-show
func (Topics) GlyphFeature(feature string) string {
	return fmt.Sprintf("%s/feature/%s", TopicPrefixGlyph, feature)
}

// GlyphSession returns the topic for hardware session state changes.
//
// Example: glyphsharge/glyph/session
func (Topics) GlyphSession() string {
	return fmt.Sprintf("%s/session", TopicPrefixGlyph)
}

// SystemStatus returns the daemon status topic (also used as LWT).
//
// Example: glyphsharge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTopics returns a pattern matching all glyphsharge topics.
// Use with caution, this receives all traffic.
//
// Pattern: glyphsharge/#
func (Topics) AllTopics() string {
	return "glyphsharge/#"
}
