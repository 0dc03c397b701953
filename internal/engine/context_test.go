package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/strata-agent/strata/internal/store"
)

func TestAssembleContextWindow(t *testing.T) {
	e, cfg := newTestEngine(t, nil)
	cfg.ShortTerm.Size = 100

	for i := 0; i < 150; i++ {
		turn := &store.Turn{SessionID: "s1", TS: int64(1000 + i), Role: store.RoleUser, Text: fmt.Sprintf("turn %d", i)}
		if err := e.DB.InsertTurn(turn); err != nil {
			t.Fatalf("InsertTurn: %v", err)
		}
	}

	ctx, err := e.AssembleContext("s1", 10, cfg)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	if len(ctx.ShortTerm) != 100 {
		t.Fatalf("short term = %d turns, want 100", len(ctx.ShortTerm))
	}
	if ctx.ShortTerm[0].Text != "turn 50" {
		t.Errorf("window starts at %q, want turn 50", ctx.ShortTerm[0].Text)
	}
	if ctx.ShortTerm[99].Text != "turn 149" {
		t.Errorf("window ends at %q, want turn 149", ctx.ShortTerm[99].Text)
	}
}

func TestAssembleContextTopK(t *testing.T) {
	e, cfg := newTestEngine(t, nil)

	for i, score := range []float64{1.0, 3.0, 2.0} {
		m := &store.Memory{Content: fmt.Sprintf("fact %d", i), Score: score}
		if err := e.DB.InsertMemory(m); err != nil {
			t.Fatalf("InsertMemory: %v", err)
		}
	}
	long := &store.Memory{Content: "long tier fact", Layer: store.LayerLong, Score: 9.0}
	if err := e.DB.InsertMemory(long); err != nil {
		t.Fatalf("InsertMemory: %v", err)
	}

	ctx, err := e.AssembleContext("s1", 2, cfg)
	if err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}
	if len(ctx.MidTerm) != 2 {
		t.Fatalf("mid term = %d memories, want 2", len(ctx.MidTerm))
	}
	if ctx.MidTerm[0].Content != "fact 1" || ctx.MidTerm[1].Content != "fact 2" {
		t.Errorf("mid term = [%q, %q]", ctx.MidTerm[0].Content, ctx.MidTerm[1].Content)
	}
}

func TestAssembleContextIsReadOnly(t *testing.T) {
	e, cfg := newTestEngine(t, nil)

	m := &store.Memory{Content: "fact", Hits: 2, Score: 1.0}
	if err := e.DB.InsertMemory(m); err != nil {
		t.Fatalf("InsertMemory: %v", err)
	}

	if _, err := e.AssembleContext("s1", 10, cfg); err != nil {
		t.Fatalf("AssembleContext: %v", err)
	}

	got, _ := e.DB.GetMemory(m.ID)
	if got.Hits != 2 || got.LastSeenAt != nil {
		t.Errorf("context read mutated the memory: %+v", got)
	}
}

func TestExplain(t *testing.T) {
	e, cfg := newTestEngine(t, nil)
	now := time.Now().UnixMilli()

	m := &store.Memory{
		Content:    "User name is Ada",
		Hits:       3,
		CreatedAt:  now - 10*millisPerDay,
		LastSeenAt: &now,
		Importance: true,
		Tags:       []string{"identity"},
	}
	if err := e.DB.InsertMemory(m); err != nil {
		t.Fatalf("InsertMemory: %v", err)
	}
	if err := e.DB.AddEvent(m.ID, store.ActionCreated, "identity"); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if err := e.DB.AddEvent(m.ID, store.ActionMerged, "identity"); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	exp, err := e.Explain(m.ID, now, cfg)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if exp == nil {
		t.Fatal("Explain returned nil for existing memory")
	}
	if exp.Hits != 3 {
		t.Errorf("hits = %d", exp.Hits)
	}
	if exp.AgeDays != 0 {
		t.Errorf("age = %v, want 0 (seen just now)", exp.AgeDays)
	}
	if exp.Score != exp.Breakdown.Total() {
		t.Errorf("score %v != breakdown total %v", exp.Score, exp.Breakdown.Total())
	}
	if exp.Breakdown.Importance != cfg.Scoring.WImportance {
		t.Errorf("importance term = %v", exp.Breakdown.Importance)
	}
	if len(exp.MatchedRules) != 1 || exp.MatchedRules[0] != "identity" {
		t.Errorf("matched rules = %v", exp.MatchedRules)
	}
	if exp.LastAction != store.ActionMerged {
		t.Errorf("last action = %q, want merged", exp.LastAction)
	}
}

func TestExplainMissing(t *testing.T) {
	e, cfg := newTestEngine(t, nil)

	exp, err := e.Explain(12345, time.Now().UnixMilli(), cfg)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if exp != nil {
		t.Errorf("expected nil for missing memory, got %+v", exp)
	}
}
