package augment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wireCandidate is the JSON shape providers return. Importance arrives as
// 0|1 per the prompt contract.
type wireCandidate struct {
	Content    string   `json:"content"`
	Importance int      `json:"importance"`
	Tags       []string `json:"tags"`
	Action     string   `json:"action"`
}

// parseCandidates extracts a JSON array of candidates from a model response.
// The response might wrap the array in markdown code fences or prose.
func parseCandidates(content string) ([]Candidate, error) {
	content = strings.TrimSpace(content)

	// Strip markdown code fences if present
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 2 {
			content = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var wire []wireCandidate
	if err := json.Unmarshal([]byte(content[start:end+1]), &wire); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}

	cands := make([]Candidate, 0, len(wire))
	for _, w := range wire {
		c, ok := coerceCandidate(w)
		if !ok {
			continue
		}
		cands = append(cands, c)
	}
	return cands, nil
}

// coerceCandidate normalizes a wire candidate, dropping empty ones.
func coerceCandidate(w wireCandidate) (Candidate, bool) {
	content := strings.TrimSpace(w.Content)
	if content == "" {
		return Candidate{}, false
	}
	action := w.Action
	if action != ActionCreate && action != ActionArchive {
		action = ActionCreate
	}
	return Candidate{
		Content:    content,
		Importance: w.Importance == 1,
		Tags:       w.Tags,
		Action:     action,
	}, true
}
