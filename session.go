package viewsync

import (
	"slices"
	"sync"

	"github.com/hrdesk/viewsync/internal"
)

// Session holds the current principal. Views watch it and re-scope their
// requests when the credential changes.
type Session struct {
	mu          sync.Mutex
	principal   Principal
	watchers    map[uint64]func(Principal)
	seq         uint64
	authFailure func(*APIError)
}

// NewSession returns a Session for token; an empty token is an anonymous
// session.
func NewSession(token string) *Session {
	return &Session{
		principal: Principal{Token: token},
		watchers:  make(map[uint64]func(Principal)),
	}
}

// Principal returns the current principal
func (s *Session) Principal() Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal
}

// SetToken replaces the credential and notifies all watchers if it changed.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	if s.principal.Token == token {
		s.mu.Unlock()
		return
	}
	p := Principal{Token: token}
	s.principal = p
	ids := make([]uint64, 0, len(s.watchers))
	for id := range s.watchers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	watchers := make([]func(Principal), 0, len(ids))
	for _, id := range ids {
		watchers = append(watchers, s.watchers[id])
	}
	s.mu.Unlock()

	internal.WithField("principal", p.Fingerprint()).Debug("session: principal changed")
	for _, w := range watchers {
		w(p)
	}
}

// Clear removes the credential
func (s *Session) Clear() {
	s.SetToken("")
}

// Watch registers fn for principal changes; the returned function removes
// it again.
func (s *Session) Watch(fn func(Principal)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := s.seq
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

// OnAuthFailure sets the handler for 401 and 403 responses, typically
// signing the user out or redirecting to a login.
func (s *Session) OnAuthFailure(fn func(*APIError)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authFailure = fn
}

// reportAuthFailure passes err to the handler; false if none is set.
func (s *Session) reportAuthFailure(err *APIError) bool {
	s.mu.Lock()
	fn := s.authFailure
	s.mu.Unlock()
	if fn == nil {
		internal.WithError(err).Warn("session: authorization failure without handler")
		return false
	}
	fn(err)
	return true
}
