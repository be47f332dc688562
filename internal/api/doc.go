// Package api provides the local HTTP control surface for glyphd.
//
// It exposes daemon status, the manual-demo animation trigger, session
// controls, and run history to local tooling, plus a WebSocket endpoint
// streaming session-state changes and animation run events.
//
// The server binds to loopback by default and carries no authentication:
// it is an operator surface for the device owner, not a network service.
//
// Lifecycle follows the other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
