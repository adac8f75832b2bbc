package extract

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedCompleter replays canned responses in order. It records every
// prompt it receives. Useful for tests and dry runs without a model.
type ScriptedCompleter struct {
	mu        sync.Mutex
	responses []string
	errs      map[int]error
	prompts   []string
}

func NewScriptedCompleter(responses ...string) *ScriptedCompleter {
	return &ScriptedCompleter{responses: responses, errs: make(map[int]error)}
}

// FailAt makes call n (0-based) return err instead of a response.
func (s *ScriptedCompleter) FailAt(n int, err error) *ScriptedCompleter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[n] = err
	return s
}

func (s *ScriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := s.errs[n]; ok {
		return "", err
	}
	if n >= len(s.responses) {
		return "", fmt.Errorf("scripted completer: no response for call %d", n)
	}
	return s.responses[n], nil
}

// Prompts returns a copy of the prompts received so far.
func (s *ScriptedCompleter) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}
