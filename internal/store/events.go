package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Lifecycle actions recorded in mem_events.
const (
	ActionCreated  = "created"
	ActionMerged   = "merged"
	ActionPromoted = "promoted"
	ActionArchived = "archived"
	ActionDeleted  = "deleted"
)

// Event is one lifecycle action applied to a memory. The newest event per
// memory backs the "last lifecycle action" field of explain.
type Event struct {
	ID        int64
	MemoryID  int64
	Action    string
	Detail    string
	CreatedAt int64
}

// AddEvent appends a lifecycle event for a memory.
func (s *Store) AddEvent(memoryID int64, action, detail string) error {
	now := time.Now().UnixMilli()
	_, err := s.q.Exec(`
		INSERT INTO mem_events (memory_id, action, detail, created_at)
		VALUES (?, ?, ?, ?)
	`, memoryID, action, detail, now)
	if err != nil {
		return fmt.Errorf("add event: %w", err)
	}
	return nil
}

// LastEvent returns the most recent lifecycle event for a memory, or nil.
func (s *Store) LastEvent(memoryID int64) (*Event, error) {
	var e Event
	var detail sql.NullString
	err := s.q.QueryRow(`
		SELECT id, memory_id, action, detail, created_at
		FROM mem_events WHERE memory_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, memoryID).Scan(&e.ID, &e.MemoryID, &e.Action, &detail, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last event: %w", err)
	}
	e.Detail = detail.String
	return &e, nil
}

// EventsForMemory returns all lifecycle events for a memory, oldest first.
func (s *Store) EventsForMemory(memoryID int64) ([]Event, error) {
	rows, err := s.q.Query(`
		SELECT id, memory_id, action, detail, created_at
		FROM mem_events WHERE memory_id = ?
		ORDER BY created_at, id
	`, memoryID)
	if err != nil {
		return nil, fmt.Errorf("events for memory: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.MemoryID, &e.Action, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}
