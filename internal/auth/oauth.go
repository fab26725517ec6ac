package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/fivetwenty-io/front-go/internal/constants"
	"github.com/fivetwenty-io/front-go/pkg/front"
)

const refreshKey = "refresh"

// OAuth2Config configures an OAuth2TokenManager.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the access token expiry, if known.
	ExpiresAt time.Time
	// HTTPClient performs the token exchange. Defaults to a client with a short timeout.
	HTTPClient *http.Client
	// RefreshTimeout bounds a refresh independently of any single caller.
	RefreshTimeout time.Duration
	// OnTokenRefresh is called after each successful refresh.
	OnTokenRefresh front.TokenRefreshFunc
	Logger         front.Logger
}

// OAuth2TokenManager serves OAuth access tokens and refreshes them with the
// refresh_token grant. Concurrent refreshes collapse into one token request.
type OAuth2TokenManager struct {
	config OAuth2Config
	store  *TokenStore
	group  singleflight.Group
	logger front.Logger
}

// NewOAuth2TokenManager creates a manager seeded with the configured tokens.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	cfg := *config

	if cfg.TokenURL == "" {
		cfg.TokenURL = constants.DefaultTokenURL
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: constants.ShortHTTPTimeout}
	}

	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = constants.RefreshTimeout
	}

	manager := &OAuth2TokenManager{
		config: cfg,
		store:  NewTokenStore(),
		logger: front.LoggerOrNop(cfg.Logger),
	}

	if cfg.AccessToken != "" || cfg.RefreshToken != "" {
		manager.store.Set(&Token{
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
			TokenType:    "bearer",
			ExpiresAt:    cfg.ExpiresAt,
		})
	}

	return manager
}

// GetToken returns the stored access token, refreshing first when it is
// missing or known to be expired and a refresh token is available.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	if token != nil && token.RefreshToken != "" {
		return m.RefreshToken(ctx)
	}

	return "", front.NewAuthError("no OAuth access token available", 0, nil, front.ErrOAuthTokenRequired)
}

// RefreshToken exchanges the refresh token for a new pair. Callers arriving
// while a refresh is in flight wait for that refresh instead of starting
// another. A caller whose ctx ends stops waiting with a Cancelled error; the
// shared refresh keeps running for the others.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) (string, error) {
	results := m.group.DoChan(refreshKey, func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.RefreshTimeout)
		defer cancel()

		return m.refresh(refreshCtx)
	})

	select {
	case result := <-results:
		if result.Err != nil {
			return "", result.Err
		}

		token, _ := result.Val.(*Token)

		return token.AccessToken, nil
	case <-ctx.Done():
		return "", front.NewCancelledError(ctx.Err())
	}
}

// Refreshable reports true; failures surface from RefreshToken.
func (m *OAuth2TokenManager) Refreshable() bool {
	return true
}

// SetTokens replaces the stored pair without contacting the token endpoint.
func (m *OAuth2TokenManager) SetTokens(accessToken, refreshToken string) {
	m.store.Set(&Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}

// Tokens returns the current pair.
func (m *OAuth2TokenManager) Tokens() front.Tokens {
	return m.store.Get().Pair()
}

func (m *OAuth2TokenManager) refresh(ctx context.Context) (*Token, error) {
	if m.config.ClientID == "" || m.config.ClientSecret == "" {
		return nil, front.NewAuthError("OAuth client credentials are not configured", 0, nil, front.ErrOAuthClientRequired)
	}

	current := m.store.Get()
	if current == nil || current.RefreshToken == "" {
		return nil, front.NewAuthError("no refresh token available", 0, nil, front.ErrOAuthTokenRequired)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     m.config.ClientID,
		ClientSecret: m.config.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  m.config.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.config.HTTPClient)

	m.logger.Debug("refreshing OAuth token", map[string]interface{}{
		"token_url": m.config.TokenURL,
	})

	exchanged, err := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
	if err != nil {
		return nil, mapRefreshError(err)
	}

	refreshed := &Token{
		AccessToken:  exchanged.AccessToken,
		RefreshToken: exchanged.RefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    exchanged.Expiry,
	}

	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = current.RefreshToken
	}

	m.store.Set(refreshed)

	m.logger.Info("OAuth token refreshed", map[string]interface{}{
		"expires_at": refreshed.ExpiresAt,
	})

	if m.config.OnTokenRefresh != nil {
		cbErr := m.config.OnTokenRefresh(ctx, refreshed.Pair())
		if cbErr != nil {
			m.logger.Warn("token refresh callback failed", map[string]interface{}{
				"error": cbErr.Error(),
			})
		}
	}

	return refreshed, nil
}

func mapRefreshError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		status := retrieveErr.Response.StatusCode

		return front.NewAuthError(
			fmt.Sprintf("token refresh failed with status %d: %s", status, string(retrieveErr.Body)),
			status,
			retrieveErr.Body,
			err,
		)
	}

	return front.NewAuthError("token refresh failed", 0, nil, err)
}
