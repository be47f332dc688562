// Package features binds phone events to glyph animations.
//
// It has two halves. Settings adapts the loaded configuration into the
// read-only view the animation engine consults (per-feature enablement,
// durations, quiet hours). Runner subscribes to the phone event topics
// on the MQTT bus and, for each event, takes the feature coordinator's
// lock and drives the matching animation.
package features
