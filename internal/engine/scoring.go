package engine

import (
	"math"

	"github.com/strata-agent/strata/internal/config"
	"github.com/strata-agent/strata/internal/store"
)

const millisPerDay = 24 * 60 * 60 * 1000

// AgeDays returns the age in days of a reference timestamp at now, clamped
// to >= 0 against clock skew.
func AgeDays(ref, now int64) float64 {
	age := float64(now-ref) / millisPerDay
	if age < 0 {
		return 0
	}
	return age
}

// ScoreBreakdown holds the per-weight terms of a memory's relevance score.
type ScoreBreakdown struct {
	Freq       float64 `json:"freq_term"`
	Recency    float64 `json:"recency_term"`
	Importance float64 `json:"importance_term"`
}

// Total sums the score terms.
func (b ScoreBreakdown) Total() float64 {
	return b.Freq + b.Recency + b.Importance
}

// Breakdown computes the score terms for a memory at now:
//
//	freq    = w_freq * ln(1 + hits)
//	recency = w_recency * e^(-lambda * age_days)
//	imp     = w_importance when the memory is flagged important
//
// Recency is measured from last_seen_at, falling back to created_at for
// memories never reinforced. Pure function: no I/O, no side effects.
func Breakdown(m *store.Memory, now int64, cfg config.ScoringConfig) ScoreBreakdown {
	hits := m.Hits
	if hits < 0 {
		hits = 0
	}
	age := AgeDays(m.SeenRef(), now)

	b := ScoreBreakdown{
		Freq:    cfg.WFreq * math.Log1p(float64(hits)),
		Recency: cfg.WRecency * math.Exp(-cfg.Lambda*age),
	}
	if m.Importance {
		b.Importance = cfg.WImportance
	}
	return b
}

// Score maps a memory's (hits, recency, importance) to its scalar relevance.
// Monotonically non-decreasing in hits and importance, non-increasing in age.
func Score(m *store.Memory, now int64, cfg config.ScoringConfig) float64 {
	return Breakdown(m, now, cfg).Total()
}
