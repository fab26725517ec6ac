package frontclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/front-go/internal/client"
	"github.com/fivetwenty-io/front-go/internal/constants"
	"github.com/fivetwenty-io/front-go/pkg/front"
)

// New creates a new Front API client. The config is copied; when it carries
// no credentials the API key is read from FRONT_API_KEY.
func New(ctx context.Context, config *front.Config) (front.Client, error) {
	if config == nil {
		return nil, front.ErrConfigRequired
	}

	cfg := *config
	cfg.APIEndpoint = normalizeEndpoint(cfg.APIEndpoint)

	if cfg.APIKey == "" && cfg.OAuth == nil {
		cfg.APIKey = os.Getenv(constants.EnvAPIKey)
	}

	c, err := client.New(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// normalizeEndpoint trims a trailing slash and adds https:// when no scheme is given.
func normalizeEndpoint(endpoint string) string {
	if endpoint == "" {
		return constants.DefaultBaseURL
	}

	endpoint = strings.TrimSuffix(endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// NewWithAPIKey creates a client authenticated with a static API key.
func NewWithAPIKey(ctx context.Context, apiKey string) (front.Client, error) {
	return New(ctx, &front.Config{
		APIKey: apiKey,
	})
}

// NewWithOAuth creates a client authenticated with OAuth tokens.
func NewWithOAuth(ctx context.Context, oauth *front.OAuthConfig) (front.Client, error) {
	return New(ctx, &front.Config{
		OAuth: oauth,
	})
}

// NewFromEnv loads configuration with LoadConfig and creates a client.
func NewFromEnv(ctx context.Context, opts LoadOptions) (front.Client, error) {
	config, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}

	return New(ctx, config)
}
