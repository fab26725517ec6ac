// Package http is the transport used by the client: bearer auth, retries with
// backoff on 429 and network failures, and a single refresh-and-resend on 401.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/front-go/internal/auth"
	"github.com/fivetwenty-io/front-go/internal/constants"
	"github.com/fivetwenty-io/front-go/pkg/front"
)

// Request is a resolved API request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response is a completed API response. Body is nil for 204 responses.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	// Attempts is the number of HTTP attempts the call took.
	Attempts int
}

// Client sends requests with bearer authentication, retrying 429 responses
// and network failures with backoff, and refreshing OAuth tokens once on 401.
type Client struct {
	baseURL      string
	tokenManager auth.TokenManager
	httpClient   *http.Client
	retryClient  *retryablehttp.Client
	policy       BackoffPolicy
	limiter      *rate.Limiter
	interceptors *front.InterceptorChain
	logger       Logger
	debug        bool
	userAgent    string
	now          func() time.Time
}

// callState is per-call bookkeeping carried on the request context so the
// shared retryablehttp hooks never share counters between calls.
type callState struct {
	requestID string
	attempts  int
}

type callStateKey struct{}

func stateFrom(ctx context.Context) *callState {
	state, _ := ctx.Value(callStateKey{}).(*callState)

	return state
}

// NewClient creates a transport for baseURL. tokenManager may be nil for
// unauthenticated use.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		httpClient:   &http.Client{Timeout: constants.DefaultHTTPTimeout},
		policy:       DefaultBackoffPolicy(),
		logger:       front.NopLogger{},
		userAgent:    constants.DefaultUserAgent,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = c.httpClient
	retryClient.Logger = leveledLogger{logger: c.logger}
	retryClient.RetryMax = c.policy.MaxRetries
	retryClient.RetryWaitMin = c.policy.BaseDelay
	retryClient.RetryWaitMax = c.policy.MaxDelay
	retryClient.CheckRetry = c.checkRetry
	retryClient.Backoff = c.backoff
	retryClient.PrepareRetry = c.prepareRetry
	retryClient.ErrorHandler = c.errorHandler
	retryClient.RequestLogHook = c.requestLogHook
	c.retryClient = retryClient

	return c
}

// Do performs req and returns the response. Non-2xx responses return both
// the response and a *front.Error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	intercepted := &front.InterceptedRequest{
		Method:   req.Method,
		Path:     req.Path,
		Headers:  make(http.Header),
		Metadata: make(map[string]interface{}),
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return nil, err
	}

	started := c.now()
	resp, err := c.do(ctx, req, intercepted.Headers)

	outcome := &front.InterceptedResponse{
		Duration: c.now().Sub(started),
		Error:    err,
	}

	if resp != nil {
		outcome.StatusCode = resp.StatusCode
		outcome.Headers = resp.Headers
	}

	interceptErr := c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, outcome)
	if interceptErr != nil && err == nil {
		return resp, interceptErr
	}

	return resp, err
}

func (c *Client) do(ctx context.Context, req *Request, extraHeaders http.Header) (*Response, error) {
	if ctx.Err() != nil {
		return nil, front.NewCancelledError(ctx.Err())
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	state := &callState{requestID: uuid.New().String()}
	ctx = context.WithValue(ctx, callStateKey{}, state)

	err = c.waitForLimiter(ctx)
	if err != nil {
		return nil, err
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	retryReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, c.buildURL(req), rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.setHeaders(retryReq.Header, req, extraHeaders, body != nil)

	err = c.authorize(ctx, retryReq.Request)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.retryClient.Do(retryReq)
	if err != nil {
		return nil, c.transportError(ctx, state.attempts, err)
	}

	if httpResp.StatusCode == http.StatusUnauthorized && c.tokenManager != nil && c.tokenManager.Refreshable() {
		httpResp, err = c.refreshAndResend(ctx, req, extraHeaders, body, httpResp)
		if err != nil {
			return nil, err
		}
	}

	return c.handleResponse(ctx, httpResp, state.attempts)
}

// refreshAndResend refreshes the token and reissues the request exactly once,
// bypassing the retry policy. Its outcome is final.
func (c *Client) refreshAndResend(ctx context.Context, req *Request, extraHeaders http.Header, body []byte, unauthorized *http.Response) (*http.Response, error) {
	state := stateFrom(ctx)
	drainAndClose(unauthorized.Body)

	c.logger.Info("received 401, refreshing token", map[string]interface{}{
		"request_id": state.requestID,
		"path":       req.Path,
	})

	token, err := c.tokenManager.RefreshToken(ctx)
	if err != nil {
		return nil, asAuthError(ctx, err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.buildURL(req), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.setHeaders(httpReq.Header, req, extraHeaders, body != nil)
	httpReq.Header.Set("Authorization", "Bearer "+token)

	state.attempts++

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, state.attempts, err)
	}

	return httpResp, nil
}

func (c *Client) handleResponse(ctx context.Context, httpResp *http.Response, attempts int) (*Response, error) {
	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Attempts:   attempts,
	}

	if httpResp.StatusCode == http.StatusNoContent {
		_ = httpResp.Body.Close()

		return resp, nil
	}

	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(ctx, attempts, err)
	}

	resp.Body = data

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"request_id": stateFrom(ctx).requestID,
			"status":     httpResp.StatusCode,
			"attempts":   attempts,
			"bytes":      len(data),
		})
	}

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		apiErr := front.ErrorFromResponse(httpResp.StatusCode, httpResp.Header, data)
		apiErr.Attempts = attempts

		return resp, apiErr
	}

	if len(bytes.TrimSpace(data)) > 0 && !json.Valid(data) {
		return resp, front.NewValidationError("response body is not valid JSON", data)
	}

	return resp, nil
}

// checkRetry retries 429 responses and transport failures only.
func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if state := stateFrom(ctx); state != nil {
		state.attempts++
	}

	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return true, nil
	}

	return resp.StatusCode == http.StatusTooManyRequests, nil
}

// backoff applies BackoffPolicy, using Retry-After on 429 responses as a floor.
func (c *Client) backoff(_, _ time.Duration, attemptNum int, resp *http.Response) time.Duration {
	var (
		hint    time.Duration
		hasHint bool
	)

	fields := map[string]interface{}{"attempt": attemptNum + 1}

	if resp != nil {
		if resp.StatusCode == http.StatusTooManyRequests {
			hint, hasHint = ParseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		}

		fields["status"] = resp.StatusCode

		if resp.Request != nil {
			if state := stateFrom(resp.Request.Context()); state != nil {
				fields["request_id"] = state.requestID
			}
		}
	}

	wait := c.policy.Delay(attemptNum, hint, hasHint)
	fields["wait_ms"] = wait.Milliseconds()

	c.logger.Warn("retrying request", fields)

	return wait
}

// prepareRetry re-reads the token and waits for the rate limiter before each retry.
func (c *Client) prepareRetry(req *http.Request) error {
	err := c.waitForLimiter(req.Context())
	if err != nil {
		return err
	}

	return c.authorize(req.Context(), req)
}

// errorHandler runs when retries stop without success. An exhausted 429 is
// handed back as a response so it maps like any other status.
func (c *Client) errorHandler(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil && err == nil {
		return resp, nil
	}

	if resp != nil {
		drainAndClose(resp.Body)
	}

	return nil, err
}

func (c *Client) requestLogHook(_ retryablehttp.Logger, req *http.Request, attemptNum int) {
	if !c.debug {
		return
	}

	fields := map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.Redacted(),
		"attempt": attemptNum + 1,
	}

	if state := stateFrom(req.Context()); state != nil {
		fields["request_id"] = state.requestID
	}

	c.logger.Debug("HTTP Request", fields)
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.tokenManager == nil {
		return nil
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return asAuthError(ctx, err)
	}

	req.Header.Set("Authorization", "Bearer "+token)

	return nil
}

func (c *Client) waitForLimiter(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}

	// Wait only fails when ctx ends, or its deadline would pass first.
	err := c.limiter.Wait(ctx)
	if err != nil {
		return front.NewCancelledError(err)
	}

	return nil
}

func (c *Client) setHeaders(header http.Header, req *Request, extra http.Header, hasBody bool) {
	header.Set("Accept", constants.ContentTypeJSON)
	header.Set("User-Agent", c.userAgent)

	if hasBody {
		header.Set("Content-Type", constants.ContentTypeJSON)
	}

	for key, values := range extra {
		for _, value := range values {
			header.Add(key, value)
		}
	}

	for key, value := range req.Headers {
		header.Set(key, value)
	}
}

func (c *Client) buildURL(req *Request) string {
	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	return fullURL
}

// transportError classifies a failure without a usable response.
func (c *Client) transportError(ctx context.Context, attempts int, err error) error {
	if ctx.Err() != nil {
		return front.NewCancelledError(ctx.Err())
	}

	var apiErr *front.Error
	if errors.As(err, &apiErr) {
		return err
	}

	return front.NewNetworkError(max(attempts, 1), err)
}

func asAuthError(ctx context.Context, err error) error {
	if _, ok := front.AsError(err); ok {
		return err
	}

	if ctx.Err() != nil {
		return front.NewCancelledError(ctx.Err())
	}

	return front.NewAuthError("obtaining access token", 0, nil, err)
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	switch v := body.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return data, nil
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
