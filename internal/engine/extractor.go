package engine

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/strata-agent/strata/internal/augment"
	"github.com/strata-agent/strata/internal/config"
	"github.com/strata-agent/strata/internal/store"
)

// hybridMergeThreshold collapses augmented candidates that restate a
// heuristic candidate in hybrid mode.
const hybridMergeThreshold = 0.9

// ExtractResult records the decision made for one candidate.
type ExtractResult struct {
	MemoryID int64  `json:"id"`
	Content  string `json:"content"`
	Action   string `json:"action"` // "create", "merge", "conflict"
}

// IngestTurn validates and stores a turn, then runs extraction over it.
// Only user turns feed extraction; noExtract suppresses it per turn. The
// turn insert and every create/merge/archive action land in one transaction,
// so observers never see a half-applied extraction. The augmentation call
// runs before the transaction opens — a slow provider never holds the
// write lock.
func (e *Engine) IngestTurn(ctx context.Context, turn *store.Turn, noExtract bool, cfg config.Config) ([]ExtractResult, error) {
	if turn.SessionID == "" {
		return nil, validationErr("session_id", "required")
	}
	if turn.Role != store.RoleUser && turn.Role != store.RoleAssistant {
		return nil, validationErr("role", "must be user or assistant")
	}
	if strings.TrimSpace(turn.Text) == "" {
		return nil, validationErr("text", "required")
	}

	var cands []Candidate
	if turn.Role == store.RoleUser && !noExtract {
		cands = e.gatherCandidates(ctx, turn.Text, cfg)
	}

	now := time.Now().UnixMilli()
	var results []ExtractResult
	err := e.DB.WithTx(func(s *store.Store) error {
		if err := s.InsertTurn(turn); err != nil {
			return err
		}
		for _, c := range cands {
			res, err := applyCandidate(s, turn.ID, c, now, cfg)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// gatherCandidates runs the heuristic rules and, depending on extractor
// mode, the augmentation provider. Augmentation failures are absorbed: the
// heuristic result alone is used and the failure is counted.
func (e *Engine) gatherCandidates(ctx context.Context, text string, cfg config.Config) []Candidate {
	var cands []Candidate
	for _, r := range e.Rules {
		cands = append(cands, r.Match(text)...)
	}

	mode := strings.ToLower(cfg.Extractor.Mode)
	if (mode == "llm" || mode == "hybrid") && e.Augmenter != nil {
		augCands := e.requestAugmentation(ctx, text, cfg.Augment)
		switch {
		case mode == "llm" && len(augCands) > 0:
			cands = augCands
		case mode == "hybrid":
			cands = mergeCandidateSets(cands, augCands)
		}
	}

	return dedupeCandidates(cands)
}

func (e *Engine) requestAugmentation(ctx context.Context, text string, cfg config.AugmentConfig) []Candidate {
	timeout := time.Duration(cfg.TimeoutS) * time.Second
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := e.Augmenter.Request(tctx, text)
	if err != nil {
		e.augmentFailures.Add(1)
		log.Printf("augment: absorbed failure: %v", err)
		return nil
	}

	cands := make([]Candidate, 0, len(raw))
	for _, a := range raw {
		cands = append(cands, Candidate{
			Content:    a.Content,
			Importance: a.Importance,
			Tags:       a.Tags,
			Rule:       "augment",
			Supersedes: a.Action == augment.ActionArchive,
			Subject:    a.Content,
		})
	}
	return cands
}

// mergeCandidateSets combines heuristic and augmented candidates, dropping
// augmented ones that restate an earlier candidate.
func mergeCandidateSets(a, b []Candidate) []Candidate {
	out := make([]Candidate, 0, len(a)+len(b))
	for _, src := range [][]Candidate{a, b} {
		for _, c := range src {
			toks := tokenSet(c.Content)
			dup := false
			for _, o := range out {
				if jaccard(toks, tokenSet(o.Content)) >= hybridMergeThreshold {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, c)
			}
		}
	}
	return out
}

// applyCandidate decides create/merge/archive for one candidate against the
// current active memory set. Decision order is the idempotence contract:
// dedup wins over conflict, so replaying a turn reinforces the memory it
// created instead of archiving anything twice.
func applyCandidate(s *store.Store, turnID int64, c Candidate, now int64, cfg config.Config) (ExtractResult, error) {
	active, err := s.ActiveMemories()
	if err != nil {
		return ExtractResult{}, err
	}

	candTokens := tokenSet(c.Content)

	// Dedup: reinforce the most similar active memory above the threshold.
	var best *store.Memory
	bestSim := 0.0
	for i := range active {
		sim := jaccard(candTokens, tokenSet(active[i].Content))
		if sim > bestSim {
			bestSim = sim
			best = &active[i]
		}
	}
	if best != nil && bestSim >= cfg.Mid.MergeThreshold {
		if err := s.TouchMemory(best.ID, now); err != nil {
			return ExtractResult{}, err
		}
		if err := s.AddLink(best.ID, turnID, store.ReasonExtracted); err != nil {
			return ExtractResult{}, err
		}
		if err := s.AddEvent(best.ID, store.ActionMerged, c.Rule); err != nil {
			return ExtractResult{}, err
		}
		return ExtractResult{MemoryID: best.ID, Content: best.Content, Action: "merge"}, nil
	}

	// Conflict: a state-change candidate supersedes the active memory that
	// best overlaps its subject.
	if c.Supersedes {
		if old := findSuperseded(active, c, cfg.Mid.ConflictThreshold); old != nil {
			return resolveConflict(s, turnID, c, old, now)
		}
	}

	// No match, no contradiction: new mid-term memory.
	mem := &store.Memory{
		Layer:      store.LayerMid,
		Content:    c.Content,
		CreatedAt:  now,
		LastSeenAt: &now,
		Hits:       1,
		Importance: c.Importance,
		Tags:       c.Tags,
	}
	if err := s.InsertMemory(mem); err != nil {
		return ExtractResult{}, err
	}
	if err := s.AddLink(mem.ID, turnID, store.ReasonExtracted); err != nil {
		return ExtractResult{}, err
	}
	if err := s.AddEvent(mem.ID, store.ActionCreated, c.Rule); err != nil {
		return ExtractResult{}, err
	}
	return ExtractResult{MemoryID: mem.ID, Content: mem.Content, Action: "create"}, nil
}

// findSuperseded returns the active memory a state-change candidate
// supersedes, or nil. Matching runs on the candidate's subject tokens with
// the state-change markers stripped.
func findSuperseded(active []store.Memory, c Candidate, threshold float64) *store.Memory {
	subject := c.Subject
	if subject == "" {
		subject = c.Content
	}
	subjToks := subjectTokens(subject)

	var best *store.Memory
	bestSim := 0.0
	for i := range active {
		sim := jaccard(subjToks, tokenSet(active[i].Content))
		if sim > bestSim {
			bestSim = sim
			best = &active[i]
		}
	}
	if best == nil || bestSim < threshold {
		return nil
	}
	return best
}

// resolveConflict archives the superseded memory and inserts the candidate
// as a fresh active memory linked to the turn with reason "conflict".
func resolveConflict(s *store.Store, turnID int64, c Candidate, old *store.Memory, now int64) (ExtractResult, error) {
	mem := &store.Memory{
		Layer:      store.LayerMid,
		Content:    c.Content,
		CreatedAt:  now,
		LastSeenAt: &now,
		Hits:       1,
		Importance: c.Importance,
		Tags:       c.Tags,
	}
	if err := s.InsertMemory(mem); err != nil {
		return ExtractResult{}, err
	}
	if err := s.TransitionStatus(old.ID, store.StatusArchived); err != nil {
		return ExtractResult{}, err
	}
	if err := s.AddEvent(old.ID, store.ActionArchived, "superseded"); err != nil {
		return ExtractResult{}, err
	}
	if err := s.AddLink(mem.ID, turnID, store.ReasonConflict); err != nil {
		return ExtractResult{}, err
	}
	if err := s.AddEvent(mem.ID, store.ActionCreated, c.Rule); err != nil {
		return ExtractResult{}, err
	}
	return ExtractResult{MemoryID: mem.ID, Content: mem.Content, Action: "conflict"}, nil
}
