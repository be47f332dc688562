// Package session owns the single binding to the glyph hardware service.
//
// The Manager is the one authoritative owner of the binding handle and the
// session state; every hardware mutation in the daemon routes through it.
// It binds to the service, registers the detected device kind, opens and
// closes LED sessions, detects silent disconnects through the binding's
// connectivity callback, and recovers classified failures with a single
// asynchronous reconnect sequence.
package session
