package transport

import "sync"

// AuthState is the shared authorization flag. Any 401 from the API flips it
// to unauthorized before the failing call returns, so every consumer sees the
// expired session without inspecting individual errors.
type AuthState struct {
	mu           sync.RWMutex
	unauthorized bool
}

// NewAuthState returns an authorized state.
func NewAuthState() *AuthState {
	return &AuthState{}
}

// MarkUnauthorized records that the session has expired.
func (s *AuthState) MarkUnauthorized() {
	s.mu.Lock()
	s.unauthorized = true
	s.mu.Unlock()
}

// Reset clears the flag, typically after re-authentication.
func (s *AuthState) Reset() {
	s.mu.Lock()
	s.unauthorized = false
	s.mu.Unlock()
}

// Unauthorized reports whether a 401 has been observed.
func (s *AuthState) Unauthorized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unauthorized
}
