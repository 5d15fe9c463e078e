package judge

import (
	"context"
	"strings"
	"sync"
)

// Scripted is a deterministic offline provider. It recognizes each operation
// by the reply-format block in the prompt and returns canned, well-formed
// output, so the whole protocol can run without network access. Tests also
// queue explicit responses to drive specific branches.
type Scripted struct {
	mu     sync.Mutex
	queued []string
	calls  int
}

func NewScripted() *Scripted { return &Scripted{} }

// Queue pushes a raw response returned ahead of the canned ones, in order.
func (s *Scripted) Queue(raw ...string) {
	s.mu.Lock()
	s.queued = append(s.queued, raw...)
	s.mu.Unlock()
}

// Calls reports how many invocations the provider has served.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Scripted) Respond(ctx context.Context, input string, opts Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.queued) > 0 {
		out := s.queued[0]
		s.queued = s.queued[1:]
		return out, nil
	}

	switch {
	case strings.Contains(input, "TRIGGER: YES or NO"):
		return "TRIGGER: NO", nil
	case strings.Contains(input, "RULING: SUSTAINED or OVERRULED"):
		return "RULING: OVERRULED\nREASON: The question is proper cross-examination.", nil
	case strings.Contains(input, "CONSISTENCY: <n>"):
		return "CONSISTENCY: 1\nEVIDENCE: 0\nDEMEANOR: 1\nPLAUSIBILITY: 0\nANALYSIS: A serviceable answer.", nil
	case strings.Contains(input, "DECISION: UPHELD or REVERSED"):
		return "DECISION: UPHELD\nREASON: The appeal raises nothing new.", nil
	case strings.Contains(input, "WINNER: <party name>"):
		return "WINNER: A\nSUMMARY: Both sides argued with conviction.\nREASON: The plaintiff's account held together better.", nil
	default:
		return "And where exactly were you when this allegedly happened?", nil
	}
}
