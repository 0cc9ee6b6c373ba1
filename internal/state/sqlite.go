// ABOUTME: SQLite implementation of the session state store using modernc.org/sqlite
// ABOUTME: Provides per-agent progress persistence with automatic schema creation

package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a store at the given path. The schema is
// created if it doesn't exist, and parent directories are created as
// needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "state")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("state store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			agent_id           TEXT PRIMARY KEY,
			current_step_index INTEGER NOT NULL DEFAULT 0,
			completed_steps    TEXT NOT NULL DEFAULT '[]',
			messages           TEXT NOT NULL DEFAULT '[]',
			updated_at         DATETIME NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save upserts the session state for the agent.
func (s *SQLiteStore) Save(ctx context.Context, st *SessionState) error {
	completed, err := json.Marshal(st.CompletedSteps)
	if err != nil {
		return fmt.Errorf("encoding completed steps: %w", err)
	}
	messages, err := json.Marshal(st.Messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (agent_id, current_step_index, completed_steps, messages, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			current_step_index = excluded.current_step_index,
			completed_steps = excluded.completed_steps,
			messages = excluded.messages,
			updated_at = excluded.updated_at
	`, st.AgentID, st.CurrentStepIndex, string(completed), string(messages), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Load returns the session state for the agent, or ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context, agentID string) (*SessionState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT current_step_index, completed_steps, messages, updated_at
		FROM sessions WHERE agent_id = ?
	`, agentID)

	var (
		st        = SessionState{AgentID: agentID}
		completed string
		messages  string
	)
	err := row.Scan(&st.CurrentStepIndex, &completed, &messages, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if err := json.Unmarshal([]byte(completed), &st.CompletedSteps); err != nil {
		return nil, fmt.Errorf("decoding completed steps: %w", err)
	}
	if err := json.Unmarshal([]byte(messages), &st.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}
	return &st, nil
}

// Clear removes the session state for the agent. Clearing a missing
// session is not an error.
func (s *SQLiteStore) Clear(ctx context.Context, agentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE agent_id = ?`, agentID); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
