package auth

import (
	"sync"
	"time"

	"github.com/fivetwenty-io/front-go/pkg/front"
)

// expiryBuffer treats tokens this close to expiry as already expired.
const expiryBuffer = 30 * time.Second

// Token is the stored OAuth token pair plus optional expiry metadata.
type Token struct {
	AccessToken  string    `json:"access_token"            yaml:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"    yaml:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"     yaml:"expires_at,omitempty"`
}

// Valid reports whether the access token is present and not about to expire.
// A zero ExpiresAt means the expiry is unknown and the token is trusted until
// the API rejects it.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(expiryBuffer).Before(t.ExpiresAt)
}

// Pair returns the public view of the token.
func (t *Token) Pair() front.Tokens {
	if t == nil {
		return front.Tokens{}
	}

	return front.Tokens{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}

// TokenStore holds the current token. Readers always see a complete pair.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns a copy of the stored token, or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil
	}

	token := *s.token

	return &token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == nil {
		s.token = nil

		return
	}

	stored := *token
	s.token = &stored
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.Set(nil)
}
