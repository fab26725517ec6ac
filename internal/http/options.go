package http

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/front-go/pkg/front"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables per-attempt request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryConfig sets the retry count and the backoff bounds, keeping the
// current jitter factor.
func WithRetryConfig(retryMax int, retryWaitMin, retryWaitMax time.Duration) Option {
	return func(c *Client) {
		c.policy.MaxRetries = max(retryMax, 0)

		if retryWaitMin > 0 {
			c.policy.BaseDelay = retryWaitMin
		}

		if retryWaitMax > 0 {
			c.policy.MaxDelay = retryWaitMax
		}
	}
}

// WithBackoffPolicy replaces the whole backoff policy.
func WithBackoffPolicy(policy BackoffPolicy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithRateLimit throttles outgoing attempts to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}

		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the per-attempt timeout on a private copy of the HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout <= 0 {
			return
		}

		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithInterceptors installs request/response interceptors.
func WithInterceptors(chain *front.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}
