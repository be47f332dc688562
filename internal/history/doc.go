// Package history records animation runs and session lifecycle events
// in SQLite for later inspection through the control API.
//
// The store owns its schema and creates it on Init. Writes are fire-and-
// forget from the daemon's point of view: a failed history insert is
// logged by the caller and never blocks an animation or a recovery.
package history
