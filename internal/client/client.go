package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/front-go/internal/auth"
	"github.com/fivetwenty-io/front-go/internal/constants"
	fronthttp "github.com/fivetwenty-io/front-go/internal/http"
	"github.com/fivetwenty-io/front-go/pkg/front"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Client implements the front.Client interface.
type Client struct {
	httpClient   *fronthttp.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       front.Logger
}

var _ front.Client = (*Client)(nil)

// New creates a client from a validated configuration.
func New(ctx context.Context, config *front.Config) (*Client, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	tokenManager, err := createTokenManager(ctx, config)
	if err != nil {
		return nil, err
	}

	return NewWithTokenManager(config, tokenManager)
}

// NewWithTokenManager creates a client with a caller-supplied token manager.
// Credentials in config are ignored.
func NewWithTokenManager(config *front.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, front.ErrConfigRequired
	}

	baseURL := config.APIEndpoint
	if baseURL == "" {
		baseURL = constants.DefaultBaseURL
	}

	httpClient := fronthttp.NewClient(baseURL, tokenManager, createHTTPClientOptions(config)...)

	return &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      baseURL,
		logger:       front.LoggerOrNop(config.Logger),
	}, nil
}

// createTokenManager picks the token manager for the configured credentials.
func createTokenManager(ctx context.Context, config *front.Config) (auth.TokenManager, error) {
	if config.OAuth == nil {
		return auth.NewStaticTokenManager(config.APIKey), nil
	}

	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = constants.DefaultTokenURL
	}

	oauthConfig := &auth.OAuth2Config{
		TokenURL:       tokenURL,
		ClientID:       config.OAuth.ClientID,
		ClientSecret:   config.OAuth.ClientSecret,
		AccessToken:    config.OAuth.AccessToken,
		RefreshToken:   config.OAuth.RefreshToken,
		HTTPClient:     tokenHTTPClient(config),
		OnTokenRefresh: config.OAuth.OnTokenRefresh,
		Logger:         config.Logger,
	}

	if config.OAuth.Persister == nil {
		return auth.NewOAuth2TokenManager(oauthConfig), nil
	}

	manager, err := auth.NewPersistentTokenManager(ctx, oauthConfig, config.OAuth.Persister)
	if err != nil {
		return nil, fmt.Errorf("creating token manager: %w", err)
	}

	return manager, nil
}

func tokenHTTPClient(config *front.Config) *http.Client {
	if config.HTTPClient != nil {
		return config.HTTPClient
	}

	return &http.Client{Timeout: constants.ShortHTTPTimeout}
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *front.Config) []fronthttp.Option {
	var httpOpts []fronthttp.Option

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, fronthttp.WithHTTPClient(config.HTTPClient))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, fronthttp.WithTimeout(config.HTTPTimeout))
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, fronthttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, fronthttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, fronthttp.WithUserAgent(config.UserAgent))
	}

	policy := fronthttp.DefaultBackoffPolicy()

	switch {
	case config.RetryMax > 0:
		policy.MaxRetries = config.RetryMax
	case config.RetryMax < 0:
		policy.MaxRetries = 0
	}

	if config.RetryWaitMin > 0 {
		policy.BaseDelay = config.RetryWaitMin
	}

	if config.RetryWaitMax > 0 {
		policy.MaxDelay = config.RetryWaitMax
	}

	if config.RetryJitter != nil {
		policy.JitterFactor = *config.RetryJitter
	}

	httpOpts = append(httpOpts, fronthttp.WithBackoffPolicy(policy))

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, fronthttp.WithRateLimit(config.RateLimit, config.RateBurst))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, fronthttp.WithInterceptors(config.Interceptors))
	}

	return httpOpts
}

// Execute performs req and returns the raw JSON body. A 204 yields nil.
func (c *Client) Execute(ctx context.Context, req *front.Request) (json.RawMessage, error) {
	path, err := req.ResolvedPath()
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &fronthttp.Request{
		Method:  req.Method,
		Path:    path,
		Query:   req.Query.ToValues(),
		Body:    req.Body,
		Headers: req.Headers,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
		return nil, nil
	}

	return json.RawMessage(resp.Body), nil
}

// IsUsingOAuth reports whether the client refreshes OAuth tokens.
func (c *Client) IsUsingOAuth() bool {
	return c.tokenManager != nil && c.tokenManager.Refreshable()
}

// UpdateOAuthTokens replaces the stored OAuth pair.
func (c *Client) UpdateOAuthTokens(ctx context.Context, accessToken, refreshToken string) error {
	switch manager := c.tokenManager.(type) {
	case *auth.PersistentTokenManager:
		return manager.SetTokens(ctx, accessToken, refreshToken)
	case *auth.OAuth2TokenManager:
		manager.SetTokens(accessToken, refreshToken)

		return nil
	default:
		return front.ErrNotUsingOAuth
	}
}

// Token returns the bearer token the next request would carry.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", ErrNoTokenManagerConfigured
	}

	return c.tokenManager.GetToken(ctx)
}

// Logger returns the client's logger; pagination uses it for warnings.
func (c *Client) Logger() front.Logger {
	return c.logger
}

// BaseURL returns the API endpoint requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}
