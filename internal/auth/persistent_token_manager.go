package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/front-go/pkg/front"
)

// PersistentTokenManager wraps OAuth2TokenManager and keeps a TokenPersister
// in sync with every refreshed or externally supplied token pair.
type PersistentTokenManager struct {
	*OAuth2TokenManager

	persister front.TokenPersister
}

// NewPersistentTokenManager loads any stored pair, which takes precedence
// over the tokens in config, and persists each refreshed pair before the
// caller's OnTokenRefresh runs.
func NewPersistentTokenManager(ctx context.Context, config *OAuth2Config, persister front.TokenPersister) (*PersistentTokenManager, error) {
	cfg := *config

	stored, err := persister.LoadTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading persisted tokens: %w", err)
	}

	if stored != nil && (stored.AccessToken != "" || stored.RefreshToken != "") {
		cfg.AccessToken = stored.AccessToken
		cfg.RefreshToken = stored.RefreshToken
		cfg.ExpiresAt = time.Time{}
	}

	userCallback := cfg.OnTokenRefresh
	logger := front.LoggerOrNop(cfg.Logger)

	cfg.OnTokenRefresh = func(ctx context.Context, tokens front.Tokens) error {
		persistErr := persister.SaveTokens(ctx, tokens)
		if persistErr != nil {
			// Log error but don't fail the refresh
			logger.Warn("failed to persist refreshed token", map[string]interface{}{
				"error": persistErr.Error(),
			})
		}

		if userCallback != nil {
			return userCallback(ctx, tokens)
		}

		return nil
	}

	return &PersistentTokenManager{
		OAuth2TokenManager: NewOAuth2TokenManager(&cfg),
		persister:          persister,
	}, nil
}

// SetTokens replaces and persists the token pair.
func (m *PersistentTokenManager) SetTokens(ctx context.Context, accessToken, refreshToken string) error {
	m.OAuth2TokenManager.SetTokens(accessToken, refreshToken)

	err := m.persister.SaveTokens(ctx, front.Tokens{AccessToken: accessToken, RefreshToken: refreshToken})
	if err != nil {
		return fmt.Errorf("persisting tokens: %w", err)
	}

	return nil
}
