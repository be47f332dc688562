// Package glyph defines the hardware-facing domain model for the glyph LED
// array: device kinds and their channel layouts, immutable brightness frames,
// the binding interface the daemon drives the hardware through, and the
// error taxonomy used to classify hardware failures.
//
// Everything in this package is passive data or interfaces. Session lifecycle
// lives in internal/session, arbitration in internal/coordinator, and the
// animation algorithms in internal/animation.
package glyph
