package mutation

import "sync"

// Session is one open create or edit form. At most one submission per
// session is in flight; the session closes once a submission succeeds.
type Session struct {
	mu         sync.Mutex
	submitting bool
	closed     bool
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting || s.closed {
		return false
	}
	s.submitting = true
	return true
}

func (s *Session) end(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if success {
		s.closed = true
	}
}
