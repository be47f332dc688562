// Package telemetry supplies live battery readings to the animation engine.
//
// The engine samples a Source exactly once per battery-visualization
// invocation; it never polls. The production source listens on the local
// MQTT bus and caches the most recent reading, so sampling is a cheap
// read of the cache.
package telemetry
