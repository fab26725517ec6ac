package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/front-go/internal/auth"
	"github.com/fivetwenty-io/front-go/pkg/front"
)

func TestToken_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    *auth.Token
		expected bool
	}{
		{
			name:     "nil token",
			token:    nil,
			expected: false,
		},
		{
			name:     "empty access token",
			token:    &auth.Token{RefreshToken: "refresh"},
			expected: false,
		},
		{
			name:     "unknown expiry",
			token:    &auth.Token{AccessToken: "access"},
			expected: true,
		},
		{
			name:     "future expiry",
			token:    &auth.Token{AccessToken: "access", ExpiresAt: time.Now().Add(time.Hour)},
			expected: true,
		},
		{
			name:     "expired",
			token:    &auth.Token{AccessToken: "access", ExpiresAt: time.Now().Add(-time.Minute)},
			expected: false,
		},
		{
			name:     "inside the expiry buffer",
			token:    &auth.Token{AccessToken: "access", ExpiresAt: time.Now().Add(10 * time.Second)},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.token.Valid())
		})
	}
}

func TestToken_Pair(t *testing.T) {
	t.Parallel()

	var nilToken *auth.Token

	assert.Equal(t, front.Tokens{}, nilToken.Pair())
	assert.Equal(t, front.Tokens{AccessToken: "a", RefreshToken: "r"},
		(&auth.Token{AccessToken: "a", RefreshToken: "r", TokenType: "bearer"}).Pair())
}

func TestTokenStore(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	assert.Nil(t, store.Get())

	original := &auth.Token{AccessToken: "a", RefreshToken: "r"}
	store.Set(original)

	original.AccessToken = "mutated"

	got := store.Get()
	require.NotNil(t, got)
	assert.Equal(t, "a", got.AccessToken)

	got.RefreshToken = "mutated"
	assert.Equal(t, "r", store.Get().RefreshToken)

	store.Clear()
	assert.Nil(t, store.Get())
}

func TestStaticTokenManager(t *testing.T) {
	t.Parallel()

	manager := auth.NewStaticTokenManager("api-key")

	token, err := manager.GetToken(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "api-key", token)
	assert.False(t, manager.Refreshable())

	_, err = manager.RefreshToken(t.Context())
	require.ErrorIs(t, err, front.ErrStaticTokenCannotRefresh)
}
