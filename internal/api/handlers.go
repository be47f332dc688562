package api

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/animation"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/coordinator"
)

// handleStatus reports the daemon's current state: session, device kind,
// which feature holds the LED lock, and how many animations are running.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"session_state": s.sessions.State(),
		"device":        s.sessions.Kind(),
		"owner":         s.lock.Owner(),
		"active_runs":   s.glyphs.ActiveRuns(),
	})
}

// handleListAnimations returns the stable animation identifier vocabulary.
func (s *Server) handleListAnimations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"animations": animation.Identifiers(),
	})
}

// handleRunAnimation triggers an animation by identifier on behalf of the
// manual-demo feature.
//
// The run executes asynchronously under the LED lock; the response reports
// acceptance, not completion. A 409 means another feature holds the LEDs.
func (s *Server) handleRunAnimation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !slices.Contains(animation.Identifiers(), id) {
		writeNotFound(w, "unknown animation identifier: "+id)
		return
	}

	if !s.lock.Acquire(r.Context(), coordinator.FeatureManualDemo, coordinator.DefaultAcquireTimeout) {
		writeConflict(w, "LEDs busy, held by "+string(s.lock.Owner()))
		return
	}

	go func() {
		defer s.lock.Release(coordinator.FeatureManualDemo)
		if err := s.glyphs.RunIdentifier(s.ctx, coordinator.FeatureManualDemo, id); err != nil {
			s.logger.Warn("manual animation failed", "id", id, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"animation": id,
		"accepted":  true,
	})
}

// handleStopAnimations cancels every running animation. Each run performs
// its all-off cleanup before exiting.
func (s *Server) handleStopAnimations(w http.ResponseWriter, _ *http.Request) {
	s.glyphs.StopAnimations()
	writeJSON(w, http.StatusOK, map[string]any{
		"stopped": true,
	})
}

// handleSessionToggle opens or closes the hardware session.
func (s *Server) handleSessionToggle(w http.ResponseWriter, _ *http.Request) {
	active := s.sessions.Toggle()
	writeJSON(w, http.StatusOK, map[string]any{
		"session_active": active,
		"state":          s.sessions.State(),
	})
}

// handleSessionReconnect tears down the service binding and lets the
// recovery loop rebuild it. Returns immediately; reconnection is async.
func (s *Server) handleSessionReconnect(w http.ResponseWriter, _ *http.Request) {
	s.sessions.ForceReconnect()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"reconnecting": true,
	})
}

// handleHistoryRuns lists recent animation runs, newest first.
func (s *Server) handleHistoryRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "run history is disabled")
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	runs, err := s.history.RecentRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeInternalError(w, "failed to query run history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleHistorySessionEvents lists recent session transitions, newest first.
func (s *Server) handleHistorySessionEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "run history is disabled")
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	events, err := s.history.RecentSessionEvents(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeInternalError(w, "failed to query session history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// parseLimit reads the optional "limit" query parameter. A zero limit lets
// the store apply its default. Writes a 400 and returns false on bad input.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeBadRequest(w, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
