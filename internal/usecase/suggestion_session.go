package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vendora/backend/internal/domain"
)

// SessionState is the observable state of a suggestion session
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionQuerying  SessionState = "querying"
	SessionSuggested SessionState = "suggested"
	SessionEmpty     SessionState = "empty"
)

// SuggestFunc fetches suggestions for one query
type SuggestFunc func(ctx context.Context, query string) (*domain.SuggestResult, error)

// SessionListener is called on every state change while the session lock is
// held, so it must not call back into the session.
type SessionListener func(state SessionState, query string, result *domain.SuggestResult)

// SuggestionSession debounces keystrokes into suggestion requests. Each
// request belongs to a generation; a response is applied only if no newer
// input arrived in the meantime, and the context of a superseded request is
// canceled.
type SuggestionSession struct {
	parent   context.Context
	suggest  SuggestFunc
	debounce time.Duration
	listener SessionListener

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	state      SessionState
	query      string
	result     *domain.SuggestResult
	closed     bool

	pending sync.WaitGroup
}

// NewSuggestionSession creates an idle session. listener may be nil.
func NewSuggestionSession(ctx context.Context, suggest SuggestFunc, debounce time.Duration, listener SessionListener) *SuggestionSession {
	return &SuggestionSession{
		parent:   ctx,
		suggest:  suggest,
		debounce: debounce,
		listener: listener,
		state:    SessionIdle,
	}
}

// Input records new text. Blank text returns the session to idle.
func (s *SuggestionSession) Input(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.generation++
	gen := s.generation
	s.stopLocked()

	if strings.TrimSpace(query) == "" {
		s.query = ""
		s.result = nil
		s.setStateLocked(SessionIdle)
		return
	}

	s.pending.Add(1)
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen, query) })
}

// State returns the current state, the query it belongs to and the last
// applied result.
func (s *SuggestionSession) State() (SessionState, string, *domain.SuggestResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.query, s.result
}

// Wait blocks until no debounce timer or request is outstanding
func (s *SuggestionSession) Wait() {
	s.pending.Wait()
}

// Close cancels any pending work. Later input is ignored.
func (s *SuggestionSession) Close() {
	s.mu.Lock()
	s.closed = true
	s.generation++
	s.stopLocked()
	s.mu.Unlock()
	s.pending.Wait()
}

// stopLocked stops the debounce timer and cancels the in-flight request
func (s *SuggestionSession) stopLocked() {
	if s.timer != nil {
		if s.timer.Stop() {
			// the callback will never run
			s.pending.Done()
		}
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *SuggestionSession) fire(gen uint64, query string) {
	defer s.pending.Done()

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.timer = nil
	s.query = query
	s.setStateLocked(SessionQuerying)
	s.mu.Unlock()

	result, err := s.suggest(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	if gen != s.generation {
		// superseded while in flight
		return
	}
	s.cancel = nil

	if err != nil || result == nil || len(result.Suggestions) == 0 {
		s.result = result
		s.setStateLocked(SessionEmpty)
		return
	}
	s.result = result
	s.setStateLocked(SessionSuggested)
}

func (s *SuggestionSession) setStateLocked(state SessionState) {
	s.state = state
	if s.listener != nil {
		s.listener(state, s.query, s.result)
	}
}
