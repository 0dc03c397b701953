// Package engine implements the memory lifecycle: fact extraction from
// turns, decay scoring, tier promotion and demotion, and read-only context
// assembly.
package engine

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/strata-agent/strata/internal/augment"
	"github.com/strata-agent/strata/internal/config"
	"github.com/strata-agent/strata/internal/store"
)

// Engine orchestrates extraction, scoring, and the lifecycle pass.
type Engine struct {
	DB        *store.DB
	Augmenter augment.Augmenter // nil: pure heuristic extraction
	Rules     []Rule

	augmentFailures atomic.Int64
	stopCh          chan struct{}
}

// New creates a new Engine with the default rule set.
func New(db *store.DB, aug augment.Augmenter) *Engine {
	return &Engine{
		DB:        db,
		Augmenter: aug,
		Rules:     DefaultRules(),
		stopCh:    make(chan struct{}),
	}
}

// AugmentFailures returns the number of absorbed augmentation failures
// (timeouts, transport errors, malformed responses) since startup.
func (e *Engine) AugmentFailures() int64 {
	return e.augmentFailures.Load()
}

// StartGCTimer runs a lifecycle pass on startup and then on every interval.
// Each pass snapshots the config value it was started with.
func (e *Engine) StartGCTimer(cfg config.Config, interval time.Duration) {
	runOnce := func() {
		res, err := e.RunGC(time.Now().UnixMilli(), cfg)
		if err != nil {
			log.Printf("gc error: %v", err)
			return
		}
		if res.Promoted+res.Archived+res.Deleted+res.PrunedTurns > 0 {
			log.Printf("gc: promoted=%d archived=%d deleted=%d pruned_turns=%d",
				res.Promoted, res.Archived, res.Deleted, res.PrunedTurns)
		}
	}

	runOnce()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runOnce()
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the engine's background goroutines.
func (e *Engine) Stop() {
	close(e.stopCh)
}
