package front

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Executor issues a single API request and returns the raw JSON response.
// A 204 response yields a nil body and a nil error.
type Executor interface {
	Execute(ctx context.Context, req *Request) (json.RawMessage, error)
}

// Client is a configured Front API client. It is safe for concurrent use and
// is meant to be built once and shared by every resource wrapper.
type Client interface {
	Executor

	// IsUsingOAuth reports whether the client authenticates with OAuth tokens.
	IsUsingOAuth() bool
	// UpdateOAuthTokens replaces the stored OAuth token pair and persists it
	// when a token store is configured.
	UpdateOAuthTokens(ctx context.Context, accessToken, refreshToken string) error
	// Token returns the bearer token the next request would carry.
	Token(ctx context.Context) (string, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Tokens is an OAuth access/refresh token pair.
type Tokens struct {
	AccessToken  string `json:"access_token"  yaml:"access_token"`
	RefreshToken string `json:"refresh_token" yaml:"refresh_token"`
}

// TokenRefreshFunc is invoked after a successful refresh with the new pair.
// A returned error is logged and never rolls back the stored tokens.
type TokenRefreshFunc func(ctx context.Context, tokens Tokens) error

// TokenPersister keeps the OAuth token pair across process restarts.
type TokenPersister interface {
	// LoadTokens returns the stored pair, or nil when nothing is stored.
	LoadTokens(ctx context.Context) (*Tokens, error)
	// SaveTokens stores pair, replacing any previous value.
	SaveTokens(ctx context.Context, pair Tokens) error
}

// OAuthConfig holds OAuth application credentials and the current token pair.
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AccessToken  string `mapstructure:"access_token"`
	RefreshToken string `mapstructure:"refresh_token"`
	// OnTokenRefresh is called after every successful refresh.
	OnTokenRefresh TokenRefreshFunc `mapstructure:"-" validate:"-"`
	// Persister, when set, seeds the token pair at startup and stores every
	// refreshed pair before OnTokenRefresh runs.
	Persister TokenPersister `mapstructure:"-" validate:"-"`
}

// Config represents client configuration for building a front.Client.
//
// # Authentication
//
// Exactly one of APIKey or OAuth must be set. APIKey is sent verbatim as a
// Bearer token and is never refreshed. With OAuth, a 401 triggers a single
// refresh against TokenURL followed by one retry of the failed request.
// When neither is set, frontclient.New falls back to the FRONT_API_KEY
// environment variable.
//
// # Retries
//
// Requests answered with 429 or failing at the network layer are retried up
// to RetryMax times with exponential backoff between RetryWaitMin and
// RetryWaitMax, jittered by RetryJitter. A Retry-After header on a 429 acts as
// a floor on the computed wait. Other statuses are never retried.
type Config struct {
	// APIEndpoint: base URL of the API. Defaults to https://api2.frontapp.com.
	APIEndpoint string `mapstructure:"api_endpoint" validate:"omitempty,url"`

	// APIKey: static API token.
	APIKey string `mapstructure:"api_key"`
	// OAuth: OAuth application credentials and tokens.
	OAuth *OAuthConfig `mapstructure:"oauth"`
	// TokenURL: OAuth token endpoint. Defaults to https://app.frontapp.com/oauth/token.
	TokenURL string `mapstructure:"token_url" validate:"omitempty,url"`

	// HTTPTimeout: per-attempt HTTP timeout. Context deadlines still apply.
	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"gte=0"`
	// RetryMax: retries after the first attempt. Zero uses the default of 3;
	// a negative value disables retries.
	RetryMax int `mapstructure:"retry_max"`
	// RetryWaitMin: base backoff delay.
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min" validate:"gte=0"`
	// RetryWaitMax: cap on the backoff delay before jitter.
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max" validate:"gte=0"`
	// RetryJitter: jitter as a fraction of the delay, in [0, 1].
	RetryJitter *float64 `mapstructure:"retry_jitter" validate:"omitempty,gte=0,lte=1"`
	// RateLimit: optional client-side limit in requests per second. Zero disables it.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	// RateBurst: burst size for RateLimit. Defaults to 1.
	RateBurst int `mapstructure:"rate_burst" validate:"gte=0"`

	// Debug: enables request/response logging at debug level.
	Debug bool `mapstructure:"debug"`
	// Logger: optional structured logger.
	Logger Logger `mapstructure:"-" validate:"-"`
	// UserAgent: overrides the default User-Agent header.
	UserAgent string `mapstructure:"user_agent"`
	// HTTPClient: optional base HTTP client whose Transport is reused.
	HTTPClient *http.Client `mapstructure:"-" validate:"-"`
	// Interceptors: optional request/response hooks run once around every call.
	// Retries and the 401 resend do not pass through them.
	Interceptors *InterceptorChain `mapstructure:"-" validate:"-"`
}
