package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/animation"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/coordinator"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/history"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/config"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/logging"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/session"
)

// MockSessions implements Sessions for handler tests.
type MockSessions struct {
	state      session.State
	toggleTo   bool
	reconnects int
	listeners  []session.Listener
}

func (m *MockSessions) State() session.State { return m.state }

func (m *MockSessions) Kind() glyph.DeviceKind { return glyph.KindPhone2 }

func (m *MockSessions) Toggle() bool { return m.toggleTo }

func (m *MockSessions) ForceReconnect() { m.reconnects++ }

func (m *MockSessions) AddListener(l session.Listener) {
	m.listeners = append(m.listeners, l)
}

// MockGlyphs implements Glyphs and records calls.
type MockGlyphs struct {
	mu      sync.Mutex
	ran     []string
	stopped int
	runErr  error
	done    chan struct{}
}

func newMockGlyphs() *MockGlyphs {
	return &MockGlyphs{done: make(chan struct{}, 8)}
}

func (m *MockGlyphs) RunIdentifier(_ context.Context, _ coordinator.Feature, id string) error {
	m.mu.Lock()
	m.ran = append(m.ran, id)
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.runErr
}

func (m *MockGlyphs) StopAnimations() {
	m.mu.Lock()
	m.stopped++
	m.mu.Unlock()
}

func (m *MockGlyphs) TurnOffAll() error { return nil }

func (m *MockGlyphs) ActiveRuns() int { return 0 }

// MockLock implements Lock with a switchable grant.
type MockLock struct {
	mu       sync.Mutex
	grant    bool
	owner    coordinator.Feature
	released []coordinator.Feature
}

func (m *MockLock) Acquire(_ context.Context, owner coordinator.Feature, _ time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.grant {
		m.owner = owner
	}
	return m.grant
}

func (m *MockLock) Release(owner coordinator.Feature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, owner)
	m.owner = coordinator.FeatureNone
}

func (m *MockLock) Owner() coordinator.Feature {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner
}

// MockHistory implements History with canned data.
type MockHistory struct {
	runs   []history.Run
	events []history.SessionEvent
	err    error
}

func (m *MockHistory) RecentRuns(_ context.Context, _ int) ([]history.Run, error) {
	return m.runs, m.err
}

func (m *MockHistory) RecentSessionEvents(_ context.Context, _ int) ([]history.SessionEvent, error) {
	return m.events, m.err
}

type testFixture struct {
	server   *Server
	sessions *MockSessions
	glyphs   *MockGlyphs
	lock     *MockLock
	history  *MockHistory
	router   http.Handler
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	sessions := &MockSessions{state: session.StateOpen, toggleTo: true}
	glyphs := newMockGlyphs()
	lock := &MockLock{grant: true}
	hist := &MockHistory{}

	server, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 9178},
		Logger:   logging.Default(),
		Sessions: sessions,
		Glyphs:   glyphs,
		Lock:     lock,
		History:  hist,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Handlers that launch animations use the server context; the listener
	// itself is not needed for router tests.
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server.ctx = ctx
	server.hub = NewHub(server.logger)

	return &testFixture{
		server:   server,
		sessions: sessions,
		glyphs:   glyphs,
		lock:     lock,
		history:  hist,
		router:   server.buildRouter(),
	}
}

func (f *testFixture) request(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Deps{Logger: logging.Default()})
	if err == nil {
		t.Error("New() with missing session manager should fail")
	}

	_, err = New(Deps{
		Sessions: &MockSessions{},
		Glyphs:   newMockGlyphs(),
		Lock:     &MockLock{},
	})
	if err == nil {
		t.Error("New() with missing logger should fail")
	}
}

func TestHandleHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/api/v1/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestHandleStatus(t *testing.T) {
	f := newFixture(t)
	f.lock.owner = coordinator.FeatureGuardAlarm

	rec := f.request(t, http.MethodGet, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["session_state"] != "open" {
		t.Errorf("session_state = %v, want open", body["session_state"])
	}
	if body["device"] != string(glyph.KindPhone2) {
		t.Errorf("device = %v, want %v", body["device"], glyph.KindPhone2)
	}
	if body["owner"] != "guard-alarm" {
		t.Errorf("owner = %v, want guard-alarm", body["owner"])
	}
}

func TestHandleListAnimations(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/api/v1/animations")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	ids, ok := body["animations"].([]any)
	if !ok {
		t.Fatalf("animations field missing: %v", body)
	}
	if len(ids) != len(animation.Identifiers()) {
		t.Errorf("animation count = %d, want %d", len(ids), len(animation.Identifiers()))
	}
}

func TestHandleRunAnimation(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodPost, "/api/v1/animations/HEARTBEAT")

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case <-f.glyphs.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for animation run")
	}

	f.glyphs.mu.Lock()
	ran := f.glyphs.ran
	f.glyphs.mu.Unlock()
	if len(ran) != 1 || ran[0] != "HEARTBEAT" {
		t.Errorf("ran = %v, want [HEARTBEAT]", ran)
	}
}

func TestHandleRunAnimationUnknown(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodPost, "/api/v1/animations/DISCO")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleRunAnimationBusy(t *testing.T) {
	f := newFixture(t)
	f.lock.grant = false
	f.lock.owner = coordinator.FeatureUnlockShow

	rec := f.request(t, http.MethodPost, "/api/v1/animations/WAVE")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["code"] != ErrCodeConflict {
		t.Errorf("error code = %v, want %v", body["code"], ErrCodeConflict)
	}
}

func TestHandleRunAnimationReleasesLock(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodPost, "/api/v1/animations/C1")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case <-f.glyphs.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for animation run")
	}

	// Release happens after RunIdentifier returns; give the deferred call
	// a moment.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		f.lock.mu.Lock()
		released := len(f.lock.released)
		f.lock.mu.Unlock()
		if released == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("lock was not released after run")
}

func TestHandleStopAnimations(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodPost, "/api/v1/animations/stop")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if f.glyphs.stopped != 1 {
		t.Errorf("StopAnimations calls = %d, want 1", f.glyphs.stopped)
	}
}

func TestHandleSessionToggle(t *testing.T) {
	f := newFixture(t)
	f.sessions.toggleTo = false
	f.sessions.state = session.StateBound

	rec := f.request(t, http.MethodPost, "/api/v1/session/toggle")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["session_active"] != false {
		t.Errorf("session_active = %v, want false", body["session_active"])
	}
	if body["state"] != "bound" {
		t.Errorf("state = %v, want bound", body["state"])
	}
}

func TestHandleSessionReconnect(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodPost, "/api/v1/session/reconnect")

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if f.sessions.reconnects != 1 {
		t.Errorf("ForceReconnect calls = %d, want 1", f.sessions.reconnects)
	}
}

func TestHandleHistoryRuns(t *testing.T) {
	f := newFixture(t)
	f.history.runs = []history.Run{
		{ID: "run-1", Animation: "WAVE", Feature: "manual-demo", Outcome: "finished"},
	}

	rec := f.request(t, http.MethodGet, "/api/v1/history/runs?limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}
}

func TestHandleHistoryRunsBadLimit(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/api/v1/history/runs?limit=banana")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryDisabled(t *testing.T) {
	f := newFixture(t)
	f.server.history = nil

	rec := f.request(t, http.MethodGet, "/api/v1/history/runs")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("runs status = %d, want 404", rec.Code)
	}

	rec = f.request(t, http.MethodGet, "/api/v1/history/session")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("session status = %d, want 404", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/health")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing generated X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want fixed-id", got)
	}
}
