package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/internal/domain/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS fall_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id    TEXT NOT NULL UNIQUE,
	source      TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	track_id    INTEGER,
	detected_at TEXT NOT NULL,
	confidence  REAL NOT NULL,
	latitude    REAL,
	longitude   REAL,
	has_gps_fix INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'pending'
);
CREATE INDEX IF NOT EXISTS idx_fall_events_detected_at ON fall_events(detected_at);
`

// SQLiteStore implements EventStore on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create fall_events table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append durably records one event.
func (s *SQLiteStore) Append(ctx context.Context, event model.FallEvent) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO fall_events
		 (event_id, source, entity_id, track_id, detected_at, confidence, latitude, longitude, has_gps_fix, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventID,
		event.Source,
		event.EntityID,
		event.TrackID,
		event.DetectedAt.UTC().Format(time.RFC3339Nano),
		event.Confidence,
		event.Latitude,
		event.Longitude,
		boolToInt(event.HasGPSFix),
		StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("insert fall event %s: %w", event.EventID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit events, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]types.EventView, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, ErrInvalidLimit)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, source, entity_id, track_id, detected_at, confidence, status
		 FROM fall_events ORDER BY detected_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	var out []types.EventView
	for rows.Next() {
		var v types.EventView
		var detectedAt string
		if err := rows.Scan(&v.ID, &v.EventID, &v.Source, &v.EntityID, &v.TrackID, &detectedAt, &v.Confidence, &v.Status); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, detectedAt)
		if err != nil {
			return nil, fmt.Errorf("parse detected_at %q: %w", detectedAt, err)
		}
		v.DetectedAt = ts
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return out, nil
}

// Count returns the total number of stored events.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fall_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// UpdateStatus moves an event between acknowledgement states.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fall_events SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update event %d status: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
