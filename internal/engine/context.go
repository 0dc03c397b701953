package engine

import (
	"github.com/strata-agent/strata/internal/config"
	"github.com/strata-agent/strata/internal/store"
)

// Context is the working set assembled for a session: the short-term turn
// window plus the top-k active mid-term memories.
type Context struct {
	ShortTerm []store.Turn   `json:"short_term"`
	MidTerm   []store.Memory `json:"mid_term"`
}

// AssembleContext builds the context for a session. Strictly read-only:
// querying context never touches hits, score, or last_seen_at.
func (e *Engine) AssembleContext(sessionID string, k int, cfg config.Config) (*Context, error) {
	if k <= 0 {
		k = 20
	}

	turns, err := e.DB.RecentTurns(sessionID, cfg.ShortTerm.Size)
	if err != nil {
		return nil, err
	}
	memories, err := e.DB.TopMid(k)
	if err != nil {
		return nil, err
	}

	return &Context{ShortTerm: turns, MidTerm: memories}, nil
}
