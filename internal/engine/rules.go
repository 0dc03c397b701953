package engine

import (
	"regexp"
	"strings"
	"unicode"
)

// Candidate is a fact proposed for the memory pool, either by a heuristic
// rule or by the augmentation provider.
type Candidate struct {
	Content    string
	Importance bool
	Tags       []string
	Rule       string // rule name, or "augment"
	Supersedes bool   // the candidate may replace an existing fact
	Subject    string // text used for conflict matching when Supersedes
}

// Rule is one heuristic extraction pattern. Rules are independent and
// additive: every rule runs against every eligible turn, and one turn may
// yield candidates from several rules.
type Rule struct {
	Name  string
	Match func(text string) []Candidate
}

var (
	prefPattern  = regexp.MustCompile(`(?i)\b(i like|i love|i hate|i prefer)\b\s+([^.!?]+)`)
	namePattern  = regexp.MustCompile(`(?i)\b(my name is|i am|im)\b\s+([A-Za-z][A-Za-z0-9_-]{1,31})`)
	placePattern = regexp.MustCompile(`(?i)\b(i live in|i work at|i moved to)\b\s+([^.!?,]+)`)
	statePattern = regexp.MustCompile(`(?i)\b(no longer|dont anymore|don't anymore|do not anymore|changed to|now)\b[^.!?]*`)
	datePattern  = regexp.MustCompile(`\b(\d{4}-\d{1,2}-\d{1,2}|\d{1,2}/\d{1,2}/\d{2,4})\b`)
)

var prefCanon = map[string]string{
	"i like":   "likes",
	"i love":   "loves",
	"i hate":   "hates",
	"i prefer": "prefers",
}

var placeCanon = map[string]string{
	"i live in":  "lives in",
	"i work at":  "works at",
	"i moved to": "moved to",
}

// DefaultRules returns the built-in rule set in evaluation order. New rule
// categories slot in here without touching the extraction control flow.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "preference", Match: matchPreference},
		{Name: "identity", Match: matchIdentity},
		{Name: "place", Match: matchPlace},
		{Name: "state-change", Match: matchStateChange},
		{Name: "date-mention", Match: matchDate},
	}
}

func matchPreference(text string) []Candidate {
	var cands []Candidate
	for _, m := range prefPattern.FindAllStringSubmatch(text, -1) {
		verb := prefCanon[strings.ToLower(m[1])]
		obj := strings.TrimSpace(m[2])
		cands = append(cands, Candidate{
			Content: strings.TrimSpace("User " + verb + " " + obj),
			Tags:    []string{"preference"},
			Rule:    "preference",
		})
	}
	return cands
}

func matchIdentity(text string) []Candidate {
	var cands []Candidate
	for _, m := range namePattern.FindAllStringSubmatch(text, -1) {
		cands = append(cands, Candidate{
			Content:    "User name is " + m[2],
			Importance: true,
			Tags:       []string{"identity"},
			Rule:       "identity",
		})
	}
	return cands
}

func matchPlace(text string) []Candidate {
	var cands []Candidate
	for _, m := range placePattern.FindAllStringSubmatch(text, -1) {
		verb := placeCanon[strings.ToLower(m[1])]
		obj := strings.TrimSpace(m[2])
		cands = append(cands, Candidate{
			Content: "User " + verb + " " + obj,
			Tags:    []string{"place"},
			Rule:    "place",
		})
	}
	return cands
}

func matchStateChange(text string) []Candidate {
	var cands []Candidate
	for _, m := range statePattern.FindAllString(text, -1) {
		phrase := strings.TrimSpace(m)
		cands = append(cands, Candidate{
			Content:    "State change: " + phrase,
			Tags:       []string{"state"},
			Rule:       "state-change",
			Supersedes: true,
			Subject:    phrase,
		})
	}
	return cands
}

func matchDate(text string) []Candidate {
	var cands []Candidate
	for _, m := range datePattern.FindAllStringSubmatch(text, -1) {
		cands = append(cands, Candidate{
			Content: "Date mentioned: " + m[1],
			Tags:    []string{"time"},
			Rule:    "date-mention",
		})
	}
	return cands
}

// normalize lowercases, strips punctuation, and collapses whitespace.
// Used for comparison only; stored content keeps its original casing.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSet returns the set of normalized tokens in text.
func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(normalize(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// jaccard computes token-overlap similarity between two token sets.
// Two empty sets are identical (1.0); one empty set matches nothing (0.0).
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// stateMarkers are the tokens of the state-change trigger phrases. They are
// stripped before conflict matching so the comparison runs on the subject of
// the change, not on the trigger words.
var stateMarkers = map[string]struct{}{
	"no": {}, "longer": {}, "dont": {}, "do": {}, "not": {},
	"anymore": {}, "changed": {}, "to": {}, "now": {},
}

// subjectTokens returns the normalized tokens of a state-change subject with
// the trigger markers removed.
func subjectTokens(subject string) map[string]struct{} {
	set := tokenSet(subject)
	for m := range stateMarkers {
		delete(set, m)
	}
	return set
}

// dedupeCandidates collapses candidates with identical normalized content,
// keeping the last occurrence. Order of first appearance is preserved.
func dedupeCandidates(cands []Candidate) []Candidate {
	byKey := make(map[string]int, len(cands))
	var out []Candidate
	for _, c := range cands {
		key := normalize(c.Content)
		if key == "" {
			continue
		}
		if i, ok := byKey[key]; ok {
			out[i] = c
			continue
		}
		byKey[key] = len(out)
		out = append(out, c)
	}
	return out
}
