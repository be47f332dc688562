// Package coordinator arbitrates exclusive access to the glyph LED hardware.
//
// The hardware has no native multiplexing, so every feature that wants to
// light the glyphs must hold the coordinator's lock for the duration of its
// animation. Acquisition is timed and provides no fairness guarantee between
// concurrent waiters; releasing by a non-holder is a guarded no-op so a
// stale release can never clobber another feature's ownership.
package coordinator
