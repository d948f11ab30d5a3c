// Package session holds the signed-in principal of a client process. A
// Session is created once and handed to every component that needs the
// current user or bearer token; nothing here is package-global.
package session

import "sync"

// Principal is who is signed in.
type Principal struct {
	UserID    int64
	SubjectID string
	Name      string
	Email     string
	Role      string
}

// Session is safe for concurrent use. The zero value is a signed-out session.
type Session struct {
	mu        sync.RWMutex
	principal Principal
	token     string
	active    bool
}

func New() *Session {
	return &Session{}
}

// Start replaces the current principal and token.
func (s *Session) Start(p Principal, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principal = p
	s.token = token
	s.active = true
}

// Clear signs out. The token is dropped from memory.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principal = Principal{}
	s.token = ""
	s.active = false
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Snapshot returns a copy of the principal and whether a session is active.
func (s *Session) Snapshot() (Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal, s.active
}

func (s *Session) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active && s.token != ""
}
