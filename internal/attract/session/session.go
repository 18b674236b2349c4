package session

import (
	"context"
	"sync"
	"time"

	"github.com/morich/attract-backend/internal/attract/domain"
	"github.com/morich/attract-backend/internal/attract/parser"
)

// Session owns one State and serializes every change to it.
// Subscribers run synchronously after each accepted event, in dispatch
// order. A subscriber must not call Dispatch, Start or Reject.
type Session struct {
	id        string
	createdAt time.Time
	now       func() time.Time

	// dispatchMu orders transitions together with their notifications
	dispatchMu sync.Mutex

	mu        sync.RWMutex
	state     State
	updatedAt time.Time
	issued    uint64
	cancel    context.CancelCauseFunc
	subs      map[int]func(State)
	nextSub   int
}

// Option configures a Session
type Option func(*Session)

// WithFallbackSection turns the fallback section for unparsable output on or off
func WithFallbackSection(enabled bool) Option {
	return func(s *Session) {
		s.state.FallbackSection = enabled
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New creates an idle session
func New(id string, opts ...Option) *Session {
	s := &Session{
		id:    id,
		now:   time.Now,
		state: Initial(true),
		subs:  make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.createdAt = s.now()
	s.updatedAt = s.createdAt
	return s
}

// ID returns the session ID
func (s *Session) ID() string {
	return s.id
}

// State returns the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastTouched returns when the state last changed
func (s *Session) LastTouched() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Snapshot returns the client view of the session
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.Snapshot{
		SessionID:     s.id,
		Status:        s.state.Status,
		Generation:    s.state.Generation,
		CandidateText: s.state.CandidateText,
		OfferText:     s.state.OfferText,
		Raw:           s.state.Raw,
		Sections:      s.state.Sections,
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
	}
	if s.state.Status == domain.StatusCompleted {
		if section, ok := parser.Find(s.state.Sections, domain.SectionKeywords); ok {
			snap.Keywords = parser.Keywords(section)
		}
	}
	if s.state.Failure != nil {
		failure := *s.state.Failure
		snap.Error = &failure
	}
	return snap
}

// Dispatch applies e and notifies subscribers when it was accepted.
// It returns the resulting state.
func (s *Session) Dispatch(e Event) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if !Accepts(s.state, e) {
		state := s.state
		s.mu.Unlock()
		return state
	}
	s.state = Reduce(s.state, e)
	s.updatedAt = s.now()
	state := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
	return state
}

// Next allocates the token for a new generation and cancels the one in
// flight, if any. The returned context ends when the generation is
// superseded or the session is closed.
func (s *Session) Next(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel(ErrSuperseded)
	}
	if s.issued < s.state.Generation {
		s.issued = s.state.Generation
	}
	s.issued++

	ctx, cancel := context.WithCancelCause(parent)
	s.cancel = cancel
	return ctx, s.issued
}

// Start allocates a token and moves the session into the generating state
// in one step
func (s *Session) Start(parent context.Context, candidate, offer string) (context.Context, uint64) {
	ctx, token := s.Next(parent)
	s.Dispatch(StartGenerate{Generation: token, Candidate: candidate, Offer: offer})
	return ctx, token
}

// Reject records blank input and stops any generation in flight
func (s *Session) Reject(candidate, offer string) State {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
		s.cancel = nil
	}
	s.mu.Unlock()

	return s.Dispatch(RejectInput{Candidate: candidate, Offer: offer})
}

// Subscribe registers fn for every accepted transition and returns a func
// that removes it
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Close cancels the generation in flight
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(ErrClosed)
		s.cancel = nil
	}
}

// Finish releases the context of generation token once its stream is done.
// Tokens other than the latest are ignored.
func (s *Session) Finish(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == s.issued && s.cancel != nil {
		s.cancel(nil)
		s.cancel = nil
	}
}
