package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/animation"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/coordinator"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/history"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/config"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/logging"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Sessions is the slice of the session manager the server exposes.
type Sessions interface {
	State() session.State
	Kind() glyph.DeviceKind
	Toggle() bool
	ForceReconnect()
	AddListener(session.Listener)
}

// Glyphs is the slice of the animation engine the server drives.
type Glyphs interface {
	RunIdentifier(ctx context.Context, feature coordinator.Feature, id string) error
	StopAnimations()
	TurnOffAll() error
	ActiveRuns() int
}

// Lock is the slice of the feature coordinator the server needs.
type Lock interface {
	Acquire(ctx context.Context, owner coordinator.Feature, timeout time.Duration) bool
	Release(owner coordinator.Feature)
	Owner() coordinator.Feature
}

// History is the optional run-history reader. A nil History disables the
// history endpoints.
type History interface {
	RecentRuns(ctx context.Context, limit int) ([]history.Run, error)
	RecentSessionEvents(ctx context.Context, limit int) ([]history.SessionEvent, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Sessions Sessions
	Glyphs   Glyphs
	Lock     Lock
	History  History // optional
	Version  string
}

// Server is the glyphd control API server.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	sessions Sessions
	glyphs   Glyphs
	lock     Lock
	history  History
	version  string

	server *http.Server
	hub    *Hub
	ctx    context.Context // bounds animations triggered over HTTP
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if deps.Glyphs == nil {
		return nil, fmt.Errorf("animation engine is required")
	}
	if deps.Lock == nil {
		return nil, fmt.Errorf("feature coordinator is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		sessions: deps.Sessions,
		glyphs:   deps.Glyphs,
		lock:     deps.Lock,
		history:  deps.History,
		version:  deps.Version,
	}, nil
}

// Hub returns the WebSocket hub. Nil before Start().
func (s *Server) Hub() *Hub {
	return s.hub
}

// BroadcastRunEvent relays an animation run event to subscribed WebSocket
// clients. Safe to call before Start(); events are dropped until the hub
// exists.
func (s *Server) BroadcastRunEvent(ev animation.RunEvent) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(ChannelRunEvents, ev)
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, registers a session-state listener for
// broadcast, and launches the HTTP listener in a background goroutine.
// The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines and
	// in-flight HTTP-triggered animations independently of the parent.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	s.ctx = srvCtx

	s.hub = NewHub(s.logger)
	go s.hub.Run(srvCtx)

	// Relay session state transitions to WebSocket subscribers.
	s.sessions.AddListener(func(state session.State) {
		s.hub.Broadcast(ChannelSessionState, map[string]any{"state": state})
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("control API listening", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("control API shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down control API: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
