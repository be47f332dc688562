package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Query limits.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// Run is one completed (or cancelled) animation run.
type Run struct {
	ID         string    `json:"id"`
	Animation  string    `json:"animation"`
	Feature    string    `json:"feature"`
	DeviceKind string    `json:"device_kind"`
	Outcome    string    `json:"outcome"` // finished, cancelled
	Steps      int64     `json:"steps"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// SessionEvent is one hardware session lifecycle event.
type SessionEvent struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"` // session.State values: unbound, bound, open
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store reads and writes run and session history in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store over an open database handle.
// Call Init before first use.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the history tables if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS glyph_runs (
	id          TEXT PRIMARY KEY,
	animation   TEXT NOT NULL,
	feature     TEXT NOT NULL,
	device_kind TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	steps       INTEGER NOT NULL DEFAULT 0,
	started_at  TEXT NOT NULL,
	ended_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_glyph_runs_started_at ON glyph_runs(started_at);

CREATE TABLE IF NOT EXISTS session_events (
	id         TEXT PRIMARY KEY,
	event      TEXT NOT NULL,
	detail     TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_events_created_at ON session_events(created_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating history schema: %w", err)
	}
	return nil
}

// RecordRun inserts one finished or cancelled run.
// The ID and EndedAt are generated if empty.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.EndedAt.IsZero() {
		run.EndedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.EndedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO glyph_runs (id, animation, feature, device_kind, outcome, steps, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Animation, run.Feature, run.DeviceKind, run.Outcome, run.Steps,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.EndedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	limit = clampLimit(limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, animation, feature, device_kind, outcome, steps, started_at, ended_at
		 FROM glyph_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt, endedAt string
		if err := rows.Scan(&run.ID, &run.Animation, &run.Feature, &run.DeviceKind,
			&run.Outcome, &run.Steps, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if run.StartedAt, err = parseTimestamp(startedAt); err != nil {
			return nil, err
		}
		if run.EndedAt, err = parseTimestamp(endedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	if runs == nil {
		runs = []Run{}
	}
	return runs, nil
}

// RecordSessionEvent inserts one session lifecycle event.
func (s *Store) RecordSessionEvent(ctx context.Context, event, detail string) error {
	id := "ses-" + uuid.NewString()[:8]

	var detailCol any
	if detail != "" {
		detailCol = detail
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_events (id, event, detail, created_at) VALUES (?, ?, ?, ?)`,
		id, event, detailCol, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting session event: %w", err)
	}
	return nil
}

// RecentSessionEvents returns the most recent session events, newest first.
func (s *Store) RecentSessionEvents(ctx context.Context, limit int) ([]SessionEvent, error) {
	limit = clampLimit(limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event, detail, created_at
		 FROM session_events ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying session events: %w", err)
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var event SessionEvent
		var detail sql.NullString
		var createdAt string
		if err := rows.Scan(&event.ID, &event.Event, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning session event: %w", err)
		}
		if detail.Valid {
			event.Detail = detail.String
		}
		if event.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session events: %w", err)
	}

	if events == nil {
		events = []SessionEvent{}
	}
	return events, nil
}

// clampLimit applies the default and maximum page sizes.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// parseTimestamp reads the RFC3339 timestamps the store writes.
func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing history timestamp %q: %w", value, err)
	}
	return t, nil
}
