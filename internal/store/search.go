package store

import (
	"fmt"
	"strings"
)

// SearchMemories returns active memories matching the query, ranked by score
// descending. layer narrows the search to one tier; empty means both. With
// FTS5 available the query goes through the memories_fts index; otherwise it
// falls back to substring matching with the same ranking semantics. An empty
// query lists by score.
func (s *Store) SearchMemories(layer, query string, limit int) ([]Memory, error) {
	if limit <= 0 {
		limit = 50
	}

	if query == "" {
		return s.queryMemories(memorySelect+`
			WHERE status = ? AND (? = '' OR layer = ?)
			ORDER BY score DESC, id DESC LIMIT ?
		`, StatusActive, layer, layer, limit)
	}

	if s.fts {
		memories, err := s.queryMemories(`
			SELECT m.id, m.layer, m.content, m.created_at, m.last_seen_at, m.hits, m.score, m.importance, m.status, m.tags_json
			FROM memories m JOIN memories_fts f ON m.id = f.rowid
			WHERE m.status = ? AND (? = '' OR m.layer = ?) AND f.memories_fts MATCH ?
			ORDER BY m.score DESC, m.id DESC LIMIT ?
		`, StatusActive, layer, layer, ftsQuery(query), limit)
		if err != nil {
			return nil, fmt.Errorf("fts search: %w", err)
		}
		return memories, nil
	}

	like := "%" + query + "%"
	memories, err := s.queryMemories(memorySelect+`
		WHERE status = ? AND (? = '' OR layer = ?) AND content LIKE ?
		ORDER BY score DESC, id DESC LIMIT ?
	`, StatusActive, layer, layer, like, limit)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	return memories, nil
}

// ftsQuery quotes each term so user input can't inject FTS5 operators.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
