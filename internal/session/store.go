package session

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/001_schema.sql
var schema string

// Store persists session records in sqlite.
type Store struct {
	conn *sql.DB
}

// OpenStore opens (and if needed creates) the session database at path
// and applies the schema.
func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{conn: conn}
	if _, err := s.conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("schema failed: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Create inserts a new session record.
func (s *Store) Create(sess *ChatSession) error {
	query := `
		INSERT INTO sessions (
			id, name, topic, state, end_reason,
			user_messages, tokens_used, created_at, last_message_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.Exec(
		query,
		sess.ID,
		sess.Name,
		sess.Topic,
		sess.State,
		sess.EndReason,
		sess.UserMessages,
		sess.TokensUsed,
		sess.CreatedAt,
		sess.LastMessageAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get returns the session with the given id, or nil if it does not exist.
func (s *Store) Get(id string) (*ChatSession, error) {
	query := `
		SELECT id, name, topic, state, end_reason,
		       user_messages, tokens_used, created_at, last_message_at
		FROM sessions
		WHERE id = ?
	`
	var sess ChatSession
	err := s.conn.QueryRow(query, id).Scan(
		&sess.ID,
		&sess.Name,
		&sess.Topic,
		&sess.State,
		&sess.EndReason,
		&sess.UserMessages,
		&sess.TokensUsed,
		&sess.CreatedAt,
		&sess.LastMessageAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return &sess, nil
}

// RecordExchange counts one completed user turn and its token cost.
func (s *Store) RecordExchange(id string, tokens int, at time.Time) error {
	query := `
		UPDATE sessions
		SET user_messages = user_messages + 1,
		    tokens_used = tokens_used + ?,
		    last_message_at = ?
		WHERE id = ?
	`
	if _, err := s.conn.Exec(query, tokens, at, id); err != nil {
		return fmt.Errorf("failed to record exchange: %w", err)
	}
	return nil
}

// End marks the session terminal with the given reason.
func (s *Store) End(id string, reason EndReason, at time.Time) error {
	query := `
		UPDATE sessions
		SET state = ?, end_reason = ?, last_message_at = ?
		WHERE id = ?
	`
	if _, err := s.conn.Exec(query, StateEnded, reason, at, id); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// Delete removes a session record entirely.
func (s *Store) Delete(id string) error {
	if _, err := s.conn.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns up to limit sessions ordered by most recent activity.
func (s *Store) List(limit int) ([]ChatSession, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, name, topic, state, end_reason,
		       user_messages, tokens_used, created_at, last_message_at
		FROM sessions
		ORDER BY last_message_at DESC
		LIMIT ?
	`
	rows, err := s.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ChatSession
	for rows.Next() {
		var sess ChatSession
		err := rows.Scan(
			&sess.ID,
			&sess.Name,
			&sess.Topic,
			&sess.State,
			&sess.EndReason,
			&sess.UserMessages,
			&sess.TokensUsed,
			&sess.CreatedAt,
			&sess.LastMessageAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}
