// Package ledlink implements the glyph.Binding interface over the LED
// control service's local Unix socket.
//
// The wire protocol is newline-delimited JSON. Each command is a single
// request object; the service answers with a single response line:
//
//	-> {"op":"register","model":"phone2"}
//	<- {"ok":true}
//	-> {"op":"frame","levels":{"4":4095,"5":2048}}
//	<- {"ok":false,"code":"session","error":"no open session"}
//
// Failure codes map onto the glyph error taxonomy: "session" becomes
// glyph.ErrSessionNotActive and "connection" becomes
// glyph.ErrServiceNotConnected, so callers can classify without string
// matching.
//
// Connectivity notifications are delivered from their own goroutine,
// never from inside a Binding call.
package ledlink
