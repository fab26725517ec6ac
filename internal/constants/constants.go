// Package constants holds defaults shared across the module.
package constants

import "time"

// API endpoints.
const (
	// DefaultBaseURL is the Front core API endpoint.
	DefaultBaseURL = "https://api2.frontapp.com"

	// DefaultTokenURL is the OAuth token endpoint used for refresh grants.
	DefaultTokenURL = "https://app.frontapp.com/oauth/token"
)

// File permissions.
const (
	// TokenDirPerm is the permission for token store directories.
	TokenDirPerm = 0750

	// TokenFilePerm is the permission for persisted token files.
	TokenFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// RefreshTimeout bounds a single OAuth refresh exchange.
	RefreshTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry defaults.
const (
	// DefaultRetryMax is the number of retries after the first attempt.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the base delay of the exponential backoff.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax caps the exponential backoff.
	DefaultRetryWaitMax = 30 * time.Second

	// DefaultRetryJitter is the fractional jitter applied to each delay.
	DefaultRetryJitter = 0.2
)

// Pagination.
const (
	// PageTokenParam is the query parameter carrying the pagination cursor.
	PageTokenParam = "page_token"

	// DefaultMaxPages bounds FetchAll when no limit is given. Zero means unbounded.
	DefaultMaxPages = 0

	// StreamBufferSize is the channel buffer used by StreamPages.
	StreamBufferSize = 1
)

// Environment.
const (
	// EnvPrefix is the prefix for environment-driven configuration.
	EnvPrefix = "FRONT"

	// EnvAPIKey holds the API key fallback.
	EnvAPIKey = "FRONT_API_KEY"
)

// Content types.
const (
	ContentTypeJSON = "application/json"
)

// DefaultUserAgent is sent when no User-Agent override is configured.
const DefaultUserAgent = "front-go/1.0"

// NATS token store defaults.
const (
	// DefaultNATSBucket is the JetStream key-value bucket holding token pairs.
	DefaultNATSBucket = "front_tokens"

	// DefaultNATSKey is the key inside the bucket.
	DefaultNATSKey = "oauth"
)
