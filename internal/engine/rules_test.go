package engine

import (
	"testing"
)

func matchRule(t *testing.T, name, text string) []Candidate {
	t.Helper()
	for _, r := range DefaultRules() {
		if r.Name == name {
			return r.Match(text)
		}
	}
	t.Fatalf("no rule named %q", name)
	return nil
}

func TestPreferenceRule(t *testing.T) {
	cands := matchRule(t, "preference", "I like dark roast coffee. I hate decaf!")
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(cands), cands)
	}
	if cands[0].Content != "User likes dark roast coffee" {
		t.Errorf("cands[0] = %q", cands[0].Content)
	}
	if cands[1].Content != "User hates decaf" {
		t.Errorf("cands[1] = %q", cands[1].Content)
	}
	if len(cands[0].Tags) != 1 || cands[0].Tags[0] != "preference" {
		t.Errorf("tags = %v", cands[0].Tags)
	}
	if cands[0].Supersedes {
		t.Error("preference candidates do not supersede")
	}
}

func TestIdentityRule(t *testing.T) {
	cands := matchRule(t, "identity", "Hi, my name is Ada.")
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(cands), cands)
	}
	if cands[0].Content != "User name is Ada" {
		t.Errorf("content = %q", cands[0].Content)
	}
	if !cands[0].Importance {
		t.Error("identity candidates are important")
	}
}

func TestPlaceRule(t *testing.T) {
	cands := matchRule(t, "place", "I live in Paris. I work at the observatory.")
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(cands), cands)
	}
	if cands[0].Content != "User lives in Paris" {
		t.Errorf("cands[0] = %q", cands[0].Content)
	}
	if cands[1].Content != "User works at the observatory" {
		t.Errorf("cands[1] = %q", cands[1].Content)
	}
	if len(cands[0].Tags) != 1 || cands[0].Tags[0] != "place" {
		t.Errorf("tags = %v", cands[0].Tags)
	}
}

func TestStateChangeRule(t *testing.T) {
	cands := matchRule(t, "state-change", "I no longer live in Paris.")
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(cands), cands)
	}
	if cands[0].Content != "State change: no longer live in Paris" {
		t.Errorf("content = %q", cands[0].Content)
	}
	if !cands[0].Supersedes {
		t.Error("state-change candidates supersede")
	}
	if cands[0].Subject != "no longer live in Paris" {
		t.Errorf("subject = %q", cands[0].Subject)
	}
}

func TestDateRule(t *testing.T) {
	cands := matchRule(t, "date-mention", "The deadline is 2024-05-01, then 6/15/2024.")
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(cands), cands)
	}
	if cands[0].Content != "Date mentioned: 2024-05-01" {
		t.Errorf("cands[0] = %q", cands[0].Content)
	}
	if cands[1].Content != "Date mentioned: 6/15/2024" {
		t.Errorf("cands[1] = %q", cands[1].Content)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello, World!", "hello world"},
		{"  spaced   out  ", "spaced out"},
		{"Don't stop", "dont stop"},
		{"", ""},
	}
	for _, c := range cases {
		if got := normalize(c.in); got != c.want {
			t.Errorf("normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestJaccard(t *testing.T) {
	a := tokenSet("the quick fox")
	b := tokenSet("the quick fox")
	if got := jaccard(a, b); got != 1.0 {
		t.Errorf("identical sets = %v, want 1.0", got)
	}

	c := tokenSet("completely different words")
	if got := jaccard(a, c); got != 0.0 {
		t.Errorf("disjoint sets = %v, want 0.0", got)
	}

	d := tokenSet("the quick dog")
	// {the,quick} over {the,quick,fox,dog} = 0.5
	if got := jaccard(a, d); got != 0.5 {
		t.Errorf("half overlap = %v, want 0.5", got)
	}

	if got := jaccard(tokenSet(""), tokenSet("")); got != 1.0 {
		t.Errorf("two empty sets = %v, want 1.0", got)
	}
	if got := jaccard(a, tokenSet("")); got != 0.0 {
		t.Errorf("one empty set = %v, want 0.0", got)
	}
}

func TestSubjectTokens(t *testing.T) {
	set := subjectTokens("no longer live in Paris, now in Berlin")
	for _, marker := range []string{"no", "longer", "now"} {
		if _, ok := set[marker]; ok {
			t.Errorf("marker %q not stripped", marker)
		}
	}
	for _, tok := range []string{"live", "paris", "berlin"} {
		if _, ok := set[tok]; !ok {
			t.Errorf("token %q missing", tok)
		}
	}
}

func TestDedupeCandidates(t *testing.T) {
	cands := []Candidate{
		{Content: "User likes coffee", Rule: "preference"},
		{Content: "User name is Ada", Rule: "identity"},
		{Content: "user likes coffee!", Rule: "augment"},
	}
	out := dedupeCandidates(cands)
	if len(out) != 2 {
		t.Fatalf("got %d, want 2: %+v", len(out), out)
	}
	// Last occurrence wins, first-appearance order preserved.
	if out[0].Rule != "augment" {
		t.Errorf("out[0].Rule = %q, want augment", out[0].Rule)
	}
	if out[1].Content != "User name is Ada" {
		t.Errorf("out[1] = %q", out[1].Content)
	}
}
