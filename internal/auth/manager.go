// Package auth supplies bearer tokens: static API keys and refreshable OAuth pairs.
package auth

import (
	"context"

	"github.com/fivetwenty-io/front-go/pkg/front"
)

// TokenManager supplies bearer tokens to the transport.
type TokenManager interface {
	// GetToken returns the token for the next request.
	GetToken(ctx context.Context) (string, error)
	// RefreshToken obtains a new token and returns it.
	RefreshToken(ctx context.Context) (string, error)
	// Refreshable reports whether RefreshToken can succeed at all.
	Refreshable() bool
}

// StaticTokenManager serves a fixed API key.
type StaticTokenManager struct {
	key string
}

// NewStaticTokenManager creates a manager for an API key.
func NewStaticTokenManager(key string) *StaticTokenManager {
	return &StaticTokenManager{key: key}
}

func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.key, nil
}

func (m *StaticTokenManager) RefreshToken(ctx context.Context) (string, error) {
	return "", front.ErrStaticTokenCannotRefresh
}

func (m *StaticTokenManager) Refreshable() bool {
	return false
}
