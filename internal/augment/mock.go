package augment

import "context"

// Mock is a test double for the Augmenter interface.
type Mock struct {
	Candidates []Candidate
	Err        error
	Calls      []string // records texts sent
	Block      bool     // when set, Request blocks until ctx is done
}

// Request records the call and returns the canned result. With Block set it
// waits for context cancellation first, simulating a hung provider.
func (m *Mock) Request(ctx context.Context, text string) ([]Candidate, error) {
	m.Calls = append(m.Calls, text)
	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.Candidates, m.Err
}
