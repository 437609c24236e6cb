// Package history keeps a local log of sessions and analysis results
// in SQLite, so past activity survives restarts and backend outages.
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides persistence for the session log.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// Open opens or creates the history database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{conn: conn, logger: logger, dbPath: dbPath}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			planet_id TEXT NOT NULL,
			project_name TEXT,
			language TEXT,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			duration_seconds INTEGER DEFAULT 0,
			analyses_performed INTEGER DEFAULT 0,
			points_earned REAL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at DESC);
		CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			session_id TEXT,
			language TEXT,
			evolution_points INTEGER NOT NULL,
			complexity_score REAL NOT NULL,
			style_feedback TEXT,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_analyses_session ON analyses(session_id);
		CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// InsertSession records a newly started session. A missing ID is
// assigned.
func (s *Store) InsertSession(rec *SessionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := s.conn.Exec(`
		INSERT INTO sessions (id, user_id, planet_id, project_name, language, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.UserID,
		rec.PlanetID,
		nullString(rec.ProjectName),
		nullString(rec.Language),
		rec.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	s.logger.Debug("Recorded session start", "session_id", rec.ID)
	return nil
}

// CompleteSession fills in the end-of-session columns.
func (s *Store) CompleteSession(id string, endedAt time.Time, durationSeconds, analyses int, points float64) error {
	result, err := s.conn.Exec(`
		UPDATE sessions SET
			ended_at = ?,
			duration_seconds = ?,
			analyses_performed = ?,
			points_earned = ?
		WHERE id = ?
	`,
		endedAt.UTC().Format(time.RFC3339),
		durationSeconds,
		analyses,
		points,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("session not found: %s", id)
	}
	return nil
}

// RecordAnalysis appends one analysis outcome to the log.
func (s *Store) RecordAnalysis(rec *AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := s.conn.Exec(`
		INSERT INTO analyses (id, session_id, language, evolution_points, complexity_score, style_feedback, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		nullString(rec.SessionID),
		nullString(rec.Language),
		rec.EvolutionPoints,
		rec.ComplexityScore,
		nullString(rec.StyleFeedback),
		rec.Source,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis: %w", err)
	}
	return nil
}

// ListSessions returns sessions newest first, capped at limit.
func (s *Store) ListSessions(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := s.conn.Query(`
		SELECT id, user_id, planet_id, project_name, language, started_at, ended_at, duration_seconds, analyses_performed, points_earned
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

// ListAnalyses returns analysis records newest first, capped at limit.
func (s *Store) ListAnalyses(limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.conn.Query(`
		SELECT id, session_id, language, evolution_points, complexity_score, style_feedback, source, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var analyses []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var sessionID, language, style sql.NullString
		var createdAt string
		if err := rows.Scan(
			&rec.ID,
			&sessionID,
			&language,
			&rec.EvolutionPoints,
			&rec.ComplexityScore,
			&style,
			&rec.Source,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		rec.SessionID = sessionID.String
		rec.Language = language.String
		rec.StyleFeedback = style.String
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.CreatedAt = t
		}
		analyses = append(analyses, rec)
	}
	return analyses, rows.Err()
}

func scanSession(rows *sql.Rows) (SessionRecord, error) {
	var rec SessionRecord
	var projectName, language, endedAt sql.NullString
	var startedAt string

	err := rows.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.PlanetID,
		&projectName,
		&language,
		&startedAt,
		&endedAt,
		&rec.DurationSeconds,
		&rec.AnalysesPerformed,
		&rec.PointsEarned,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan session row: %w", err)
	}

	rec.ProjectName = projectName.String
	rec.Language = language.String
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		rec.StartedAt = t
	}
	if endedAt.Valid {
		if t, err := time.Parse(time.RFC3339, endedAt.String); err == nil {
			rec.EndedAt = &t
		}
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
