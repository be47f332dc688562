package glyph

import "context"

// ConnectivityHandler receives asynchronous connected/disconnected
// notifications from the hardware service.
type ConnectivityHandler func(connected bool)

// Binding is the interface to the glyph hardware service.
//
// The daemon never talks to the hardware directly; it drives this interface,
// normally implemented by internal/ledlink over the local control socket, and
// by mocks in tests. A session must be opened before Submit or TurnOff will
// be accepted.
//
// Implementations return errors wrapping ErrSessionNotActive or
// ErrServiceNotConnected where those conditions apply so callers can
// classify them.
type Binding interface {
	// Bind attaches to the hardware service and registers the connectivity
	// handler. It does not open a session.
	Bind(ctx context.Context, onConnectivity ConnectivityHandler) error

	// Register declares the detected device kind to the service.
	// Must be called after Bind and before OpenSession.
	Register(kind DeviceKind) error

	// OpenSession opens an LED session on the bound service.
	OpenSession() error

	// CloseSession closes the current session.
	CloseSession() error

	// Submit atomically replaces the entire LED state with the frame.
	// This is a synchronous call; it does not suspend mid-animation.
	Submit(frame Frame) error

	// TurnOff forces every channel to zero.
	TurnOff() error

	// Close tears down the binding entirely.
	Close() error
}
