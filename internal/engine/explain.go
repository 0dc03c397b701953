package engine

import (
	"github.com/strata-agent/strata/internal/config"
)

// Explanation shows why a memory scores the way it does. Always recomputed
// from the current row, never served from a cache.
type Explanation struct {
	ID           int64          `json:"id"`
	Content      string         `json:"content"`
	Layer        string         `json:"layer"`
	Status       string         `json:"status"`
	Hits         int            `json:"hits"`
	AgeDays      float64        `json:"age_days"`
	LastSeenAt   *int64         `json:"last_seen_at"`
	Score        float64        `json:"score"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
	MatchedRules []string       `json:"matched_rules"`
	LastAction   string         `json:"last_action,omitempty"`
}

// Explain recomputes a memory's score breakdown at now. Returns nil if the
// memory does not exist.
func (e *Engine) Explain(id int64, now int64, cfg config.Config) (*Explanation, error) {
	m, err := e.DB.GetMemory(id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	b := Breakdown(m, now, cfg.Scoring)
	exp := &Explanation{
		ID:           m.ID,
		Content:      m.Content,
		Layer:        m.Layer,
		Status:       m.Status,
		Hits:         m.Hits,
		AgeDays:      AgeDays(m.SeenRef(), now),
		LastSeenAt:   m.LastSeenAt,
		Score:        b.Total(),
		Breakdown:    b,
		MatchedRules: m.Tags,
	}

	if last, err := e.DB.LastEvent(id); err == nil && last != nil {
		exp.LastAction = last.Action
	}
	return exp, nil
}
