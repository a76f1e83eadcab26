package llm

import (
	"context"
	"errors"
	"sync"

	"labelbench/internal/prompt"
)

// Scripted replays canned answers in order. It is safe for concurrent use and
// records every conversation it receives.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []prompt.Conversation
}

// NewScripted returns a backend that answers with responses in order.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

// FailWith queues an error for the next call instead of an answer.
func (s *Scripted) FailWith(err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
	return s
}

// Generate returns the next queued error or answer.
func (s *Scripted) Generate(ctx context.Context, conv prompt.Conversation, _ Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, conv)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	if len(s.responses) == 0 {
		return "", errors.New("scripted backend: no responses left")
	}
	out := s.responses[0]
	s.responses = s.responses[1:]
	return out, nil
}

// Calls returns the conversations received so far.
func (s *Scripted) Calls() []prompt.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]prompt.Conversation, len(s.calls))
	copy(out, s.calls)
	return out
}
