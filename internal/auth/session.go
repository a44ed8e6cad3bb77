package auth

import (
	"crypto/subtle"
	"errors"
	"sync/atomic"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Session is a single process-wide login flag checked against configured
// credentials.
type Session struct {
	username string
	password string
	loggedIn atomic.Bool
}

func NewSession(username, password string) *Session {
	return &Session{username: username, password: password}
}

func (s *Session) Login(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	s.loggedIn.Store(true)
	return nil
}

func (s *Session) Logout() {
	s.loggedIn.Store(false)
}

// Authenticated reports whether a login is active.
func (s *Session) Authenticated() bool {
	return s.loggedIn.Load()
}
