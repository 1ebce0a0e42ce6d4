// Package auth verifies user credentials. The static implementation covers
// the demo credential table; production deployments plug in a real identity
// provider behind the same interface.
package auth

import (
	"crypto/subtle"

	"github.com/querybot-ai/querybot/pkg/config"
)

// Authenticator verifies a username/password pair.
type Authenticator interface {
	Verify(username, password string) bool
}

// Static is an in-memory credential table.
type Static struct {
	users map[string]string
}

// NewStatic builds a Static authenticator from configured users.
func NewStatic(users []config.UserConfig) *Static {
	table := make(map[string]string, len(users))
	for _, u := range users {
		table[u.Name] = u.Password
	}
	return &Static{users: table}
}

// Verify checks the password with a constant-time compare.
func (s *Static) Verify(username, password string) bool {
	stored, ok := s.users[username]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}
