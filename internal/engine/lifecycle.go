package engine

import (
	"fmt"

	"github.com/strata-agent/strata/internal/config"
	"github.com/strata-agent/strata/internal/store"
)

// GCResult summarizes one lifecycle pass. The pass never creates memories,
// so the first counter reports how many active memories were rescored; the
// remaining counters mirror the layer/status transitions of the pass.
type GCResult struct {
	Rescored    int     `json:"rescored"`
	Promoted    int     `json:"promoted"`
	Archived    int     `json:"archived"`
	Deleted     int     `json:"deleted"`
	PrunedTurns int     `json:"pruned_turns"`
	AvgScore    float64 `json:"avg_score"`
	AvgAgeDays  float64 `json:"avg_age_days"`
}

// RunGC executes one lifecycle pass at now under a single config snapshot.
// The pass runs inside one transaction, so every layer/status transition is
// observed as an indivisible unit. Step order is a hard contract: promotion
// runs before cleanup so a memory qualifying for both in the same tick is
// promoted, never removed.
func (e *Engine) RunGC(now int64, cfg config.Config) (*GCResult, error) {
	var res GCResult
	err := e.DB.WithTx(func(s *store.Store) error {
		// 1. Rescore every active memory.
		active, err := s.ActiveMemories()
		if err != nil {
			return err
		}
		for i := range active {
			score := Score(&active[i], now, cfg.Scoring)
			if err := s.UpdateScore(active[i].ID, score); err != nil {
				return err
			}
			active[i].Score = score
			res.Rescored++
		}

		// 2. Promote reinforced mid-term memories to the long tier.
		// A memory never reinforced (nil last_seen_at) does not promote.
		promoted := make(map[int64]bool)
		for i := range active {
			m := &active[i]
			if m.Layer != store.LayerMid || m.Hits < cfg.Mid.PromoteHits {
				continue
			}
			if m.LastSeenAt == nil || AgeDays(*m.LastSeenAt, now) > cfg.Mid.PromoteWindowDays {
				continue
			}
			if err := s.PromoteMemory(m.ID); err != nil {
				return err
			}
			if err := s.AddEvent(m.ID, store.ActionPromoted, fmt.Sprintf("hits=%d", m.Hits)); err != nil {
				return err
			}
			promoted[m.ID] = true
			res.Promoted++
		}

		// 3. Cleanup: archive stale mid-term memories not promoted this pass.
		for i := range active {
			m := &active[i]
			if m.Layer != store.LayerMid || promoted[m.ID] {
				continue
			}
			age := AgeDays(m.SeenRef(), now)
			if m.Score >= cfg.Mid.DeleteScoreThreshold && age <= cfg.Mid.DemoteAgeDays {
				continue
			}
			if err := s.TransitionStatus(m.ID, store.StatusArchived); err != nil {
				return err
			}
			if err := s.AddEvent(m.ID, store.ActionArchived, fmt.Sprintf("score=%.3f age_days=%.1f", m.Score, age)); err != nil {
				return err
			}
			res.Archived++
		}

		// 4. Capacity: evict the lowest-scoring surplus from the mid tier.
		ordered, err := s.MidEvictionOrder()
		if err != nil {
			return err
		}
		if overflow := len(ordered) - cfg.Mid.Capacity; overflow > 0 {
			for _, m := range ordered[:overflow] {
				if err := s.DeleteMemory(m.ID); err != nil {
					return err
				}
				res.Deleted++
			}
		}

		// 5. Prune turns beyond the short-term window for every session.
		sessions, err := s.Sessions()
		if err != nil {
			return err
		}
		for _, sid := range sessions {
			n, err := s.PruneTurns(sid, cfg.ShortTerm.Size)
			if err != nil {
				return err
			}
			res.PrunedTurns += n
		}

		// Pass statistics over the surviving active memories.
		survivors, err := s.ActiveMemories()
		if err != nil {
			return err
		}
		if len(survivors) > 0 {
			var sumScore, sumAge float64
			for i := range survivors {
				sumScore += survivors[i].Score
				sumAge += AgeDays(survivors[i].SeenRef(), now)
			}
			res.AvgScore = sumScore / float64(len(survivors))
			res.AvgAgeDays = sumAge / float64(len(survivors))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gc pass: %w", err)
	}
	return &res, nil
}
