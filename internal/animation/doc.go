// Package animation implements the glyph animation library.
//
// Every animation is built on one primitive: compute a frame for the current
// step, submit it, wait, advance, check for cancellation. All entrypoints
// share the same contract: settings and device guards up front, channel
// groups resolved from the device profile (never per-call device branching),
// and a mandatory all-channels-off cleanup on every exit path — normal
// completion, cancellation, or error.
//
// A per-step frame submission failure is logged and the loop continues after
// its normal delay; animations degrade gracefully on transient hardware
// hiccups rather than terminating. See DESIGN.md for why this behaviour is
// preserved as-is.
package animation
