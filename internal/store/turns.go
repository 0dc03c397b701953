package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance in a session. Turns are append-only: once inserted
// they are never updated, only pruned when they fall out of the short-term
// window.
type Turn struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	TS        int64  `json:"ts"` // unix millis
	Role      string `json:"role"`
	Text      string `json:"text"`
}

// InsertTurn appends a turn. TS defaults to now when zero.
func (s *Store) InsertTurn(t *Turn) error {
	if t.TS == 0 {
		t.TS = time.Now().UnixMilli()
	}
	result, err := s.q.Exec(`
		INSERT INTO turns (session_id, ts, role, text)
		VALUES (?, ?, ?, ?)
	`, t.SessionID, t.TS, t.Role, t.Text)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	t.ID, _ = result.LastInsertId()
	return nil
}

// GetTurn returns a turn by ID, or nil if not found.
func (s *Store) GetTurn(id int64) (*Turn, error) {
	var t Turn
	err := s.q.QueryRow(`
		SELECT id, session_id, ts, role, text FROM turns WHERE id = ?
	`, id).Scan(&t.ID, &t.SessionID, &t.TS, &t.Role, &t.Text)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get turn: %w", err)
	}
	return &t, nil
}

// RecentTurns returns the last n turns for a session in chronological order.
func (s *Store) RecentTurns(sessionID string, n int) ([]Turn, error) {
	rows, err := s.q.Query(`
		SELECT id, session_id, ts, role, text
		FROM turns WHERE session_id = ?
		ORDER BY ts DESC, id DESC
		LIMIT ?
	`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.TS, &t.Role, &t.Text); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query ran newest-first; callers want chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Sessions returns the distinct session IDs present in the turn log.
func (s *Store) Sessions() ([]string, error) {
	rows, err := s.q.Query(`SELECT DISTINCT session_id FROM turns`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PruneTurns physically removes turns beyond the newest keep for a session.
// Links referencing pruned turns cascade. Returns the number removed.
func (s *Store) PruneTurns(sessionID string, keep int) (int, error) {
	result, err := s.q.Exec(`
		DELETE FROM turns WHERE session_id = ? AND id NOT IN (
			SELECT id FROM turns WHERE session_id = ?
			ORDER BY ts DESC, id DESC LIMIT ?
		)
	`, sessionID, sessionID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune turns: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// CountTurns returns the number of turns stored for a session.
func (s *Store) CountTurns(sessionID string) (int, error) {
	var count int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM turns WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return count, nil
}
