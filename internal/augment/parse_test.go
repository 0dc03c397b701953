package augment

import (
	"testing"

	"github.com/strata-agent/strata/internal/config"
)

func TestParseCandidatesPlainArray(t *testing.T) {
	cands, err := parseCandidates(`[{"content":"User likes coffee","importance":0,"tags":["preference"],"action":"create"}]`)
	if err != nil {
		t.Fatalf("parseCandidates: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d, want 1", len(cands))
	}
	if cands[0].Content != "User likes coffee" || cands[0].Importance {
		t.Errorf("cands[0] = %+v", cands[0])
	}
	if len(cands[0].Tags) != 1 || cands[0].Tags[0] != "preference" {
		t.Errorf("tags = %v", cands[0].Tags)
	}
}

func TestParseCandidatesFenced(t *testing.T) {
	content := "```json\n[{\"content\":\"User name is Ada\",\"importance\":1,\"action\":\"create\"}]\n```"
	cands, err := parseCandidates(content)
	if err != nil {
		t.Fatalf("parseCandidates: %v", err)
	}
	if len(cands) != 1 || !cands[0].Importance {
		t.Errorf("cands = %+v", cands)
	}
}

func TestParseCandidatesWithProse(t *testing.T) {
	content := `Here are the extracted facts: [{"content":"User moved to Berlin","action":"archive"}] Hope that helps!`
	cands, err := parseCandidates(content)
	if err != nil {
		t.Fatalf("parseCandidates: %v", err)
	}
	if len(cands) != 1 || cands[0].Action != ActionArchive {
		t.Errorf("cands = %+v", cands)
	}
}

func TestParseCandidatesDropsEmptyAndCoercesAction(t *testing.T) {
	cands, err := parseCandidates(`[{"content":"  "},{"content":"real fact","action":"bogus"}]`)
	if err != nil {
		t.Fatalf("parseCandidates: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d, want 1", len(cands))
	}
	if cands[0].Action != ActionCreate {
		t.Errorf("action = %q, want create", cands[0].Action)
	}
}

func TestParseCandidatesNoArray(t *testing.T) {
	if _, err := parseCandidates("I could not extract anything."); err == nil {
		t.Error("expected error for response without an array")
	}
}

func TestParseCandidatesBadJSON(t *testing.T) {
	if _, err := parseCandidates(`[{"content": }]`); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestNewClientProviders(t *testing.T) {
	cfg := func(provider string) (Augmenter, error) {
		return NewClient(config.AugmentConfig{Provider: provider, APIKeyEnv: "OPENAI_API_KEY"})
	}

	aug, err := cfg("none")
	if err != nil || aug != nil {
		t.Errorf("none: aug=%v err=%v, want nil/nil", aug, err)
	}
	if _, err := cfg("carrier-pigeon"); err == nil {
		t.Error("expected error for unknown provider")
	}
	aug, err = cfg("ollama")
	if err != nil || aug == nil {
		t.Errorf("ollama: aug=%v err=%v", aug, err)
	}
}
