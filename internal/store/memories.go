package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Memory layers. Short-term is a derived view over turns and is never
// persisted as a Memory row.
const (
	LayerMid  = "mid"
	LayerLong = "long"
)

// Memory statuses. Transitions are one-way: active -> archived (decay or
// conflict) and active -> deleted (manual forget); both are terminal.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusDeleted  = "deleted"
)

// ErrInvalidTransition is returned when a status change targets a memory
// that is not active, or names a status that is not terminal.
var ErrInvalidTransition = errors.New("invalid status transition")

// Memory is a consolidated fact in the mid or long tier.
type Memory struct {
	ID         int64    `json:"id"`
	Layer      string   `json:"layer"`
	Content    string   `json:"content"`
	CreatedAt  int64    `json:"created_at"`             // unix millis
	LastSeenAt *int64   `json:"last_seen_at,omitempty"` // nil until first reinforcement
	Hits       int      `json:"hits"`
	Score      float64  `json:"score"`
	Importance bool     `json:"importance"`
	Status     string   `json:"status"`
	Tags       []string `json:"tags,omitempty"`
}

// SeenRef returns the timestamp decay is measured from: last_seen_at when
// set, created_at otherwise.
func (m *Memory) SeenRef() int64 {
	if m.LastSeenAt != nil {
		return *m.LastSeenAt
	}
	return m.CreatedAt
}

// InsertMemory creates a memory row. Defaults: mid layer, active status,
// created_at now.
func (s *Store) InsertMemory(m *Memory) error {
	if m.Layer == "" {
		m.Layer = LayerMid
	}
	if m.Status == "" {
		m.Status = StatusActive
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().UnixMilli()
	}

	tagsJSON, err := marshalTags(m.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	importance := 0
	if m.Importance {
		importance = 1
	}

	result, err := s.q.Exec(`
		INSERT INTO memories (layer, content, created_at, last_seen_at, hits, score, importance, status, tags_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.Layer, m.Content, m.CreatedAt, m.LastSeenAt, m.Hits, m.Score, importance, m.Status, tagsJSON)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	m.ID, _ = result.LastInsertId()
	return nil
}

// GetMemory returns a memory by ID, or nil if not found.
func (s *Store) GetMemory(id int64) (*Memory, error) {
	row := s.q.QueryRow(memorySelect+` WHERE id = ?`, id)
	m, err := scanMemoryRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

// ActiveMemories returns all active memories across the mid and long tiers.
func (s *Store) ActiveMemories() ([]Memory, error) {
	return s.queryMemories(memorySelect+` WHERE status = ? ORDER BY id`, StatusActive)
}

// ActiveByLayer returns active memories in one tier.
func (s *Store) ActiveByLayer(layer string) ([]Memory, error) {
	return s.queryMemories(memorySelect+` WHERE status = ? AND layer = ? ORDER BY id`, StatusActive, layer)
}

// TopMid returns up to k active mid-term memories by descending score,
// ties broken by most recent last_seen_at.
func (s *Store) TopMid(k int) ([]Memory, error) {
	return s.queryMemories(memorySelect+`
		WHERE status = ? AND layer = ?
		ORDER BY score DESC, COALESCE(last_seen_at, 0) DESC, id DESC
		LIMIT ?
	`, StatusActive, LayerMid, k)
}

// MidEvictionOrder returns active mid-term memories in eviction order:
// ascending score, ties oldest last_seen_at first (never-seen first).
func (s *Store) MidEvictionOrder() ([]Memory, error) {
	return s.queryMemories(memorySelect+`
		WHERE status = ? AND layer = ?
		ORDER BY score ASC, COALESCE(last_seen_at, 0) ASC, id ASC
	`, StatusActive, LayerMid)
}

// CountActiveMid returns the number of active mid-term memories.
func (s *Store) CountActiveMid() (int, error) {
	var count int
	err := s.q.QueryRow(`
		SELECT COUNT(*) FROM memories WHERE status = ? AND layer = ?
	`, StatusActive, LayerMid).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active mid: %w", err)
	}
	return count, nil
}

// TouchMemory reinforces a memory: hits+1, last_seen_at = now.
func (s *Store) TouchMemory(id int64, now int64) error {
	_, err := s.q.Exec(`
		UPDATE memories SET hits = hits + 1, last_seen_at = ? WHERE id = ?
	`, now, id)
	if err != nil {
		return fmt.Errorf("touch memory: %w", err)
	}
	return nil
}

// UpdateScore persists a recomputed score.
func (s *Store) UpdateScore(id int64, score float64) error {
	_, err := s.q.Exec(`UPDATE memories SET score = ? WHERE id = ?`, score, id)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	return nil
}

// PromoteMemory moves an active mid-term memory to the long tier.
func (s *Store) PromoteMemory(id int64) error {
	result, err := s.q.Exec(`
		UPDATE memories SET layer = ? WHERE id = ? AND status = ? AND layer = ?
	`, LayerLong, id, StatusActive, LayerMid)
	if err != nil {
		return fmt.Errorf("promote memory: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("memory %d not promotable", id)
	}
	return nil
}

// TransitionStatus moves an active memory to archived or deleted.
// Both targets are terminal; archived and deleted memories can never be
// re-activated.
func (s *Store) TransitionStatus(id int64, to string) error {
	if to != StatusArchived && to != StatusDeleted {
		return fmt.Errorf("%w: target %q", ErrInvalidTransition, to)
	}
	result, err := s.q.Exec(`
		UPDATE memories SET status = ? WHERE id = ? AND status = ?
	`, to, id, StatusActive)
	if err != nil {
		return fmt.Errorf("transition status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: memory %d is not active", ErrInvalidTransition, id)
	}
	return nil
}

// DeleteMemory physically removes a memory. Links and events cascade.
func (s *Store) DeleteMemory(id int64) error {
	_, err := s.q.Exec(`DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

// UpdateContent replaces a memory's stored content.
func (s *Store) UpdateContent(id int64, content string) error {
	_, err := s.q.Exec(`UPDATE memories SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	return nil
}

// UpdateTags replaces a memory's tag set.
func (s *Store) UpdateTags(id int64, tags []string) error {
	tagsJSON, err := marshalTags(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	if _, err := s.q.Exec(`UPDATE memories SET tags_json = ? WHERE id = ?`, tagsJSON, id); err != nil {
		return fmt.Errorf("update tags: %w", err)
	}
	return nil
}

const memorySelect = `
	SELECT id, layer, content, created_at, last_seen_at, hits, score, importance, status, tags_json
	FROM memories`

func (s *Store) queryMemories(query string, args ...any) ([]Memory, error) {
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var memories []Memory
	for rows.Next() {
		m, err := scanMemoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		memories = append(memories, *m)
	}
	return memories, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemoryRow(row rowScanner) (*Memory, error) {
	var m Memory
	var lastSeen sql.NullInt64
	var importance int
	var tagsJSON sql.NullString
	if err := row.Scan(&m.ID, &m.Layer, &m.Content, &m.CreatedAt, &lastSeen,
		&m.Hits, &m.Score, &importance, &m.Status, &tagsJSON); err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		m.LastSeenAt = &lastSeen.Int64
	}
	m.Importance = importance != 0
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &m.Tags); err != nil {
			m.Tags = nil
		}
	}
	return &m, nil
}

func marshalTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
