package ledlink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
)

// Timeouts for socket operations.
const (
	// defaultDialTimeout is the timeout for individual socket dial attempts.
	defaultDialTimeout = 1 * time.Second

	// defaultRequestTimeout bounds a single command round trip.
	defaultRequestTimeout = 2 * time.Second
)

// Config configures the LED control socket client.
type Config struct {
	// SocketPath is the Unix socket the LED control service listens on.
	SocketPath string

	// DialTimeout is the per-attempt dial timeout.
	// Zero means defaultDialTimeout.
	DialTimeout time.Duration

	// RequestTimeout bounds one command round trip.
	// Zero means defaultRequestTimeout.
	RequestTimeout time.Duration
}

// Logger defines the logging interface for the client.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// request is one command line sent to the service.
type request struct {
	Op     string         `json:"op"`
	Model  string         `json:"model,omitempty"`
	Levels map[string]int `json:"levels,omitempty"`
}

// response is one reply line from the service.
type response struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Client talks to the LED control service over its Unix socket.
//
// Commands are synchronous request/response exchanges guarded by a
// mutex, so the client is safe for concurrent use. On an I/O failure
// the connection is torn down and the connectivity handler is notified
// from a separate goroutine; subsequent calls return
// glyph.ErrServiceNotConnected until Bind is called again.
type Client struct {
	cfg    Config
	logger Logger

	mu             sync.Mutex
	conn           net.Conn
	reader         *bufio.Reader
	onConnectivity glyph.ConnectivityHandler
}

// Verify Client satisfies the hardware binding contract.
var _ glyph.Binding = (*Client)(nil)

// NewClient creates a client for the given socket. Call Bind to connect.
func NewClient(cfg Config) *Client {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Client{
		cfg:    cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Bind dials the control socket and registers the connectivity handler.
// It does not open a session. Safe to call again after Close.
func (c *Client) Bind(ctx context.Context, onConnectivity glyph.ConnectivityHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.onConnectivity = onConnectivity
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "unix", c.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("%w: dialing %s: %w", glyph.ErrServiceNotConnected, c.cfg.SocketPath, err)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.onConnectivity = onConnectivity

	c.logger.Debug("bound to LED control socket", "socket", c.cfg.SocketPath)
	c.notify(onConnectivity, true)
	return nil
}

// Register declares the device kind to the service.
func (c *Client) Register(kind glyph.DeviceKind) error {
	return c.exchange(request{Op: "register", Model: string(kind)})
}

// OpenSession opens an LED session on the service.
func (c *Client) OpenSession() error {
	return c.exchange(request{Op: "open_session"})
}

// CloseSession closes the current session.
func (c *Client) CloseSession() error {
	return c.exchange(request{Op: "close_session"})
}

// Submit replaces the entire LED state with the frame.
func (c *Client) Submit(frame glyph.Frame) error {
	levels := make(map[string]int)
	for _, ch := range frame.Channels() {
		levels[strconv.Itoa(ch)] = frame.Level(ch)
	}
	return c.exchange(request{Op: "frame", Levels: levels})
}

// TurnOff forces every channel to zero.
func (c *Client) TurnOff() error {
	return c.exchange(request{Op: "off"})
}

// Close tears down the binding. No connectivity notification is fired;
// this is a deliberate local action, not a loss of service.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teardownLocked()
}

// exchange performs one request/response round trip.
func (c *Client) exchange(req request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return glyph.ErrServiceNotConnected
	}

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return c.failLocked(req.Op, err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding %s command: %w", req.Op, err)
	}
	payload = append(payload, '\n')

	if _, err := c.conn.Write(payload); err != nil {
		return c.failLocked(req.Op, err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return c.failLocked(req.Op, err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return c.failLocked(req.Op, fmt.Errorf("malformed response: %w", err))
	}

	if !resp.OK {
		return commandError(req.Op, resp)
	}
	return nil
}

// failLocked handles an I/O failure on the socket: the connection is
// torn down and the connectivity handler is told, asynchronously.
// Callers must hold mu.
func (c *Client) failLocked(op string, err error) error {
	c.logger.Warn("LED control socket failure", "op", op, "error", err)
	handler := c.onConnectivity
	c.teardownLocked() //nolint:errcheck // Connection already failing
	c.notify(handler, false)
	return fmt.Errorf("%w: %s: %w", glyph.ErrServiceNotConnected, op, err)
}

// teardownLocked closes and clears the connection. Callers must hold mu.
func (c *Client) teardownLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// notify delivers a connectivity change from its own goroutine so the
// handler can call back into session management without deadlocking.
func (c *Client) notify(handler glyph.ConnectivityHandler, connected bool) {
	if handler == nil {
		return
	}
	go handler(connected)
}

// commandError maps a service failure response onto the glyph error taxonomy.
func commandError(op string, resp response) error {
	switch resp.Code {
	case "session":
		return fmt.Errorf("%w: %s: %s", glyph.ErrSessionNotActive, op, resp.Error)
	case "connection":
		return fmt.Errorf("%w: %s: %s", glyph.ErrServiceNotConnected, op, resp.Error)
	default:
		return fmt.Errorf("ledlink: %s rejected: %s", op, resp.Error)
	}
}
