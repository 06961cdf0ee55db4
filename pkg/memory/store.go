// Package memory persists chat history and session-level learned facts in a
// SQLite database. It is a CRUD layer consumed by the API surface, not by
// the orchestration core.
package memory

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Message is one persisted chat message.
type Message struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"sessionId"`
	Role      string    `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	Metadata  *string   `db:"metadata" json:"metadata,omitempty"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Session is session-level metadata and learned facts.
type Session struct {
	ID           string    `db:"id" json:"id"`
	SessionID    string    `db:"session_id" json:"sessionId"`
	UserID       *string   `db:"user_id" json:"userId,omitempty"`
	LearnedFacts *string   `db:"learned_facts" json:"learnedFacts,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Store is a SQLite-backed chat-memory store.
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata TEXT,
	timestamp TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id);

CREATE TABLE IF NOT EXISTS session_memory (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	user_id TEXT,
	learned_facts TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_memory_user ON session_memory(user_id);
`

// NewStore opens (creating if needed) the database at dbPath and initializes
// the schema.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to execute pragma: %s", pragma)
		}
	}
	db.SetMaxIdleConns(1)
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddMessage stores one chat message and returns its generated id.
func (s *Store) AddMessage(ctx context.Context, sessionID, role, content string, metadata *string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, metadata, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, sessionID, role, content, metadata, time.Now().UTC())
	if err != nil {
		return "", errors.Wrap(err, "failed to insert chat message")
	}
	return id, nil
}

// ChatHistory returns up to limit of the most recent messages for a
// session, oldest first.
func (s *Store) ChatHistory(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	var recent []Message
	err := s.db.SelectContext(ctx, &recent,
		`SELECT id, session_id, role, content, metadata, timestamp
		 FROM chat_messages WHERE session_id = ?
		 ORDER BY timestamp DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query chat history")
	}

	// Reverse into chronological order.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// InitializeSession creates session metadata if it does not already exist.
func (s *Store) InitializeSession(ctx context.Context, sessionID string, userID *string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_memory (id, session_id, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		uuid.NewString(), sessionID, userID, now, now)
	if err != nil {
		return errors.Wrap(err, "failed to initialize session")
	}
	return nil
}

// UpdateLearnedFacts stores the learned-facts blob for an existing session.
func (s *Store) UpdateLearnedFacts(ctx context.Context, sessionID, facts string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE session_memory SET learned_facts = ?, updated_at = ? WHERE session_id = ?`,
		facts, time.Now().UTC(), sessionID)
	if err != nil {
		return errors.Wrap(err, "failed to update learned facts")
	}
	return nil
}

// LearnedFacts returns the learned-facts blob for a session, or nil when
// the session is unknown or has no facts.
func (s *Store) LearnedFacts(ctx context.Context, sessionID string) (*string, error) {
	var facts sql.NullString
	err := s.db.GetContext(ctx, &facts,
		`SELECT learned_facts FROM session_memory WHERE session_id = ?`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query learned facts")
	}
	if !facts.Valid {
		return nil, nil
	}
	return &facts.String, nil
}

// ClearSession deletes all messages and memory for a session.
func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return errors.Wrap(err, "failed to delete chat messages")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_memory WHERE session_id = ?`, sessionID); err != nil {
		return errors.Wrap(err, "failed to delete session memory")
	}
	return errors.Wrap(tx.Commit(), "failed to commit session clear")
}
