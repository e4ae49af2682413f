// Package store persists session transcripts and tool activity in a local
// SQLite database so past conversations survive process restarts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed archive. Safe for concurrent use; database/sql
// serializes access.
type Store struct {
	db   *sql.DB
	path string
}

// SessionRecord is one archived session.
type SessionRecord struct {
	ID        string
	SubjectID string
	Mode      string
	StartedAt time.Time
	EndedAt   *time.Time
}

// MessageRecord is one archived transcript entry.
type MessageRecord struct {
	SessionID string
	Role      string
	Text      string
	At        time.Time
}

// ToolEventRecord is one archived tool result.
type ToolEventRecord struct {
	SessionID string
	Tool      string
	Category  string
	Status    string
	Data      map[string]any
	At        time.Time
}

// Open creates or opens the database at dbPath, enabling WAL mode and
// applying the schema.
func Open(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("store: db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	s := &Store{db: db, path: dbPath}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		mode       TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at   TEXT
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		role       TEXT NOT NULL,
		text       TEXT NOT NULL,
		at         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);

	CREATE TABLE IF NOT EXISTS tool_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		tool       TEXT NOT NULL,
		category   TEXT NOT NULL,
		status     TEXT NOT NULL,
		data       TEXT NOT NULL DEFAULT '{}',
		at         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tool_events_session ON tool_events(session_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession records the start of a session.
func (s *Store) CreateSession(ctx context.Context, rec SessionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, subject_id, mode, started_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.SubjectID, rec.Mode, rec.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// EndSession stamps a session's end time.
func (s *Store) EndSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("store: unknown session %q", id)
	}
	return nil
}

// AppendMessage archives one transcript entry.
func (s *Store) AppendMessage(ctx context.Context, rec MessageRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, text, at) VALUES (?, ?, ?, ?)`,
		rec.SessionID, rec.Role, rec.Text, rec.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// AppendToolEvent archives one tool result.
func (s *Store) AppendToolEvent(ctx context.Context, rec ToolEventRecord) error {
	data := rec.Data
	if data == nil {
		data = map[string]any{}
	}
	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode tool data: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tool_events (session_id, tool, category, status, data, at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Tool, rec.Category, rec.Status, string(blob), rec.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert tool event: %w", err)
	}
	return nil
}

// Sessions lists archived sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject_id, mode, started_at, ended_at FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var started string
		var ended sql.NullString
		if err := rows.Scan(&rec.ID, &rec.SubjectID, &rec.Mode, &started, &ended); err != nil {
			return nil, err
		}
		rec.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if ended.Valid {
			t, err := time.Parse(time.RFC3339Nano, ended.String)
			if err != nil {
				return nil, fmt.Errorf("parse ended_at: %w", err)
			}
			rec.EndedAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Messages returns a session's transcript in order.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]MessageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, role, text, at FROM messages WHERE session_id = ? ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var rec MessageRecord
		var at string
		if err := rows.Scan(&rec.SessionID, &rec.Role, &rec.Text, &at); err != nil {
			return nil, err
		}
		rec.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse message time: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ToolEvents returns a session's tool activity in order.
func (s *Store) ToolEvents(ctx context.Context, sessionID string) ([]ToolEventRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, tool, category, status, data, at FROM tool_events WHERE session_id = ? ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query tool events: %w", err)
	}
	defer rows.Close()

	var out []ToolEventRecord
	for rows.Next() {
		var rec ToolEventRecord
		var data, at string
		if err := rows.Scan(&rec.SessionID, &rec.Tool, &rec.Category, &rec.Status, &data, &at); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
			return nil, fmt.Errorf("decode tool data: %w", err)
		}
		rec.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse tool event time: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
