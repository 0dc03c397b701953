package store

import (
	"testing"
)

func seedSearchMemories(t *testing.T, db *DB) {
	t.Helper()
	for _, m := range []*Memory{
		{Content: "User likes dark roast coffee", Score: 2.0},
		{Content: "User likes green tea", Score: 3.0},
		{Content: "User name is Ada", Layer: LayerLong, Score: 5.0},
		{Content: "User hates decaf coffee", Score: 1.0},
	} {
		if err := db.InsertMemory(m); err != nil {
			t.Fatalf("InsertMemory: %v", err)
		}
	}
}

func TestSearchEmptyQueryListsByScore(t *testing.T) {
	db := openTestDB(t)
	seedSearchMemories(t, db)

	memories, err := db.SearchMemories(LayerMid, "", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(memories) != 3 {
		t.Fatalf("got %d, want 3", len(memories))
	}
	if memories[0].Content != "User likes green tea" {
		t.Errorf("first = %q, want highest score", memories[0].Content)
	}
}

func TestSearchAllLayers(t *testing.T) {
	db := openTestDB(t)
	seedSearchMemories(t, db)

	memories, err := db.SearchMemories("", "", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(memories) != 4 {
		t.Fatalf("got %d, want 4 across both tiers", len(memories))
	}
	if memories[0].Layer != LayerLong {
		t.Errorf("first = %+v, want the long-tier memory", memories[0])
	}
}

func TestSearchByQuery(t *testing.T) {
	db := openTestDB(t)
	seedSearchMemories(t, db)

	memories, err := db.SearchMemories(LayerMid, "coffee", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(memories) != 2 {
		t.Fatalf("got %d, want 2: %+v", len(memories), memories)
	}
	// Ranked by score: dark roast (2.0) before decaf (1.0).
	if memories[0].Content != "User likes dark roast coffee" {
		t.Errorf("first = %q", memories[0].Content)
	}
}

func TestSearchExcludesArchived(t *testing.T) {
	db := openTestDB(t)
	seedSearchMemories(t, db)

	memories, _ := db.SearchMemories(LayerMid, "coffee", 10)
	if err := db.TransitionStatus(memories[0].ID, StatusArchived); err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}

	memories, err := db.SearchMemories(LayerMid, "coffee", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(memories) != 1 {
		t.Errorf("got %d, want 1 after archiving", len(memories))
	}
}

func TestSearchAfterContentUpdate(t *testing.T) {
	db := openTestDB(t)

	m := &Memory{Content: "User works with python", Score: 1.0}
	if err := db.InsertMemory(m); err != nil {
		t.Fatalf("InsertMemory: %v", err)
	}
	if err := db.UpdateContent(m.ID, "User works with golang"); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	hits, err := db.SearchMemories(LayerMid, "golang", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d for new content, want 1", len(hits))
	}

	stale, err := db.SearchMemories(LayerMid, "python", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("got %d for stale content, want 0", len(stale))
	}
}

func TestFTSQueryQuoting(t *testing.T) {
	got := ftsQuery(`dark roast "special"`)
	want := `"dark" "roast" """special"""`
	if got != want {
		t.Errorf("ftsQuery = %s, want %s", got, want)
	}
}
