package translation

import "sync"

// fallbackThreshold is the number of primary-backend failures after which a
// session stops trying the primary backend altogether.
const fallbackThreshold = 3

// Session carries the failure state of one translator instance. Quota
// exhaustion is session-scoped rather than per-call: the fallback decision
// is sticky and never reset. Mutex-guarded, safe for concurrent callers
// sharing one translator.
type Session struct {
	mu       sync.Mutex
	failures int
	sticky   bool
}

func NewSession() *Session {
	return &Session{}
}

// RecordFailure counts one primary-backend failure.
func (s *Session) RecordFailure() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

// ForceFallback pins the session to the secondary backend.
func (s *Session) ForceFallback() {
	s.mu.Lock()
	s.sticky = true
	s.mu.Unlock()
}

// FallbackOnly reports whether the primary backend should be skipped.
func (s *Session) FallbackOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sticky || s.failures >= fallbackThreshold
}

// Failures returns the primary-backend failure count.
func (s *Session) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}
