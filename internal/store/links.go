package store

import (
	"fmt"
)

// Link reasons.
const (
	ReasonExtracted = "extracted"
	ReasonConflict  = "conflict"
	ReasonManual    = "manual"
)

// Link ties a memory to the turn it was derived from or superseded by.
type Link struct {
	MemoryID int64
	TurnID   int64
	Reason   string
}

// AddLink records a memory<->turn association. Replaying the same pair
// updates the reason in place instead of failing on the primary key.
func (s *Store) AddLink(memoryID, turnID int64, reason string) error {
	_, err := s.q.Exec(`
		INSERT OR REPLACE INTO memory_links (memory_id, turn_id, reason)
		VALUES (?, ?, ?)
	`, memoryID, turnID, reason)
	if err != nil {
		return fmt.Errorf("add link: %w", err)
	}
	return nil
}

// LinksForMemory returns all links for a memory.
func (s *Store) LinksForMemory(memoryID int64) ([]Link, error) {
	rows, err := s.q.Query(`
		SELECT memory_id, turn_id, reason FROM memory_links WHERE memory_id = ?
		ORDER BY turn_id
	`, memoryID)
	if err != nil {
		return nil, fmt.Errorf("links for memory: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.MemoryID, &l.TurnID, &l.Reason); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
