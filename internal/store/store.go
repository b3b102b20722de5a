// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			text TEXT NOT NULL,
			letters INTEGER NOT NULL,
			words INTEGER NOT NULL,
			phrases INTEGER NOT NULL,
			ambiguous INTEGER NOT NULL,
			unknown INTEGER NOT NULL,
			dropped INTEGER NOT NULL,
			short_blink_max_ms INTEGER NOT NULL,
			long_blink_min_ms INTEGER NOT NULL,
			letter_gap_min_ms INTEGER NOT NULL,
			word_gap_min_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session record.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, duration_ms, text, letters, words, phrases, ambiguous, unknown, dropped, short_blink_max_ms, long_blink_min_ms, letter_gap_min_ms, word_gap_min_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.DurationMs,
		rec.Text,
		rec.Letters,
		rec.Words,
		rec.Phrases,
		rec.Ambiguous,
		rec.Unknown,
		rec.Dropped,
		rec.Profile.ShortBlinkMax.Milliseconds(),
		rec.Profile.LongBlinkMin.Milliseconds(),
		rec.Profile.LetterGapMin.Milliseconds(),
		rec.Profile.WordGapMin.Milliseconds(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// HistoryFilter narrows ListSessions results.
type HistoryFilter struct {
	Since *time.Time
	Limit int
}

// ListSessions returns stored sessions, most recent last.
func (s *Store) ListSessions(ctx context.Context, filter HistoryFilter) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	limit := ""
	if filter.Limit > 0 {
		// Take the most recent N, then present oldest first.
		limit = " LIMIT ?"
		args = append(args, filter.Limit)
	}
	query := fmt.Sprintf(`SELECT started_at, ended_at, duration_ms, text, letters, words, phrases, ambiguous, unknown, dropped, short_blink_max_ms, long_blink_min_ms, letter_gap_min_ms, word_gap_min_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at DESC%s`, strings.Join(clauses, " AND "), limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt, endedAt string
		var shortMs, longMs, letterMs, wordMs int64
		if err := rows.Scan(&startedAt, &endedAt, &rec.DurationMs, &rec.Text,
			&rec.Letters, &rec.Words, &rec.Phrases, &rec.Ambiguous, &rec.Unknown, &rec.Dropped,
			&shortMs, &longMs, &letterMs, &wordMs); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		rec.Profile = model.ThresholdProfile{
			ShortBlinkMax: time.Duration(shortMs) * time.Millisecond,
			LongBlinkMin:  time.Duration(longMs) * time.Millisecond,
			LetterGapMin:  time.Duration(letterMs) * time.Millisecond,
			WordGapMin:    time.Duration(wordMs) * time.Millisecond,
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse to chronological order.
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	return sessions, nil
}
