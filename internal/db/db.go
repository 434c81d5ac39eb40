// Package db persists engine output for later review: per-session
// analysis snapshots, dispatched activations and auto-applied settings
// recommendations. It is a collaborator of the engine core, consuming
// only its public callbacks; the core itself has no persistence
// surface.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/GrupoUS/steadyinput/internal/activation"
	"github.com/GrupoUS/steadyinput/internal/tremor"
)

// DB wraps the session database.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the session database at path and applies any
// pending schema migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}
	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// CreateSession inserts a session row and returns its UUID.
func (db *DB) CreateSession(startedAt time.Time, note string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, started_at, note) VALUES (?, ?, ?)`,
		id, startedAt.UnixMilli(), note,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// RecordPattern stores one analysis tick result. A nil pattern records
// an insufficient-data tick so idle coverage is visible in review.
func (db *DB) RecordPattern(sessionID string, atMs int64, p *tremor.Pattern) error {
	if p == nil {
		_, err := db.Exec(
			`INSERT INTO analysis_ticks (session_id, at_ms, sufficient) VALUES (?, ?, 0)`,
			sessionID, atMs,
		)
		if err != nil {
			return fmt.Errorf("failed to record empty analysis tick: %w", err)
		}
		return nil
	}
	_, err := db.Exec(
		`INSERT INTO analysis_ticks (
			session_id, at_ms, sufficient, frequency_hz, amplitude_px,
			consistency, dominant_axis, classification, has_tremor,
			confidence, sample_count, path_length_px
		) VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, atMs, p.FrequencyHz, p.AmplitudePx,
		p.Consistency, string(p.DominantAxis), string(p.Classification),
		p.HasTremor, p.Confidence, p.SampleCount, p.PathLengthPx,
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis tick: %w", err)
	}
	return nil
}

// RecordActivation stores one dispatched activation.
func (db *DB) RecordActivation(sessionID string, ev activation.Event) error {
	_, err := db.Exec(
		`INSERT INTO activations (session_id, target_id, method, at_ms, x, y)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, ev.TargetID, string(ev.Method), ev.AtMs, ev.Pos.X, ev.Pos.Y,
	)
	if err != nil {
		return fmt.Errorf("failed to record activation: %w", err)
	}
	return nil
}

// RecordAutoApply stores an auto-applied settings recommendation with
// the classification that caused it.
func (db *DB) RecordAutoApply(sessionID string, atMs int64, class tremor.Class, rec tremor.Recommendation) error {
	_, err := db.Exec(
		`INSERT INTO auto_applies (session_id, at_ms, classification, sensitivity, window_ms, dwell_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, atMs, string(class), rec.Sensitivity, rec.WindowMs, rec.DwellMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record auto-apply: %w", err)
	}
	return nil
}

// SessionSummary aggregates a session for the replay report.
type SessionSummary struct {
	SessionID       string
	AnalysisTicks   int
	SufficientTicks int
	TremorTicks     int
	Activations     int
	AutoApplies     int
}

// Summarize aggregates the stored rows for one session.
func (db *DB) Summarize(sessionID string) (SessionSummary, error) {
	s := SessionSummary{SessionID: sessionID}
	err := db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(sufficient), 0),
		        COALESCE(SUM(CASE WHEN has_tremor THEN 1 ELSE 0 END), 0)
		 FROM analysis_ticks WHERE session_id = ?`, sessionID,
	).Scan(&s.AnalysisTicks, &s.SufficientTicks, &s.TremorTicks)
	if err != nil {
		return s, fmt.Errorf("failed to summarize analysis ticks: %w", err)
	}
	err = db.QueryRow(
		`SELECT COUNT(*) FROM activations WHERE session_id = ?`, sessionID,
	).Scan(&s.Activations)
	if err != nil {
		return s, fmt.Errorf("failed to summarize activations: %w", err)
	}
	err = db.QueryRow(
		`SELECT COUNT(*) FROM auto_applies WHERE session_id = ?`, sessionID,
	).Scan(&s.AutoApplies)
	if err != nil {
		return s, fmt.Errorf("failed to summarize auto-applies: %w", err)
	}
	return s, nil
}
