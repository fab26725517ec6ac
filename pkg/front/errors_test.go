package front_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/front-go/pkg/front"
)

func TestKindForStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   int
		expected front.ErrorKind
		sentinel error
	}{
		{http.StatusBadRequest, front.KindBadRequest, front.ErrBadRequest},
		{http.StatusUnauthorized, front.KindUnauthorized, front.ErrUnauthorized},
		{http.StatusForbidden, front.KindForbidden, front.ErrForbidden},
		{http.StatusNotFound, front.KindNotFound, front.ErrNotFound},
		{http.StatusConflict, front.KindConflict, front.ErrConflict},
		{http.StatusUnprocessableEntity, front.KindUnprocessableEntity, front.ErrUnprocessableEntity},
		{http.StatusTooManyRequests, front.KindRateLimited, front.ErrRateLimited},
		{http.StatusInternalServerError, front.KindServerError, front.ErrServerError},
		{http.StatusServiceUnavailable, front.KindServerError, front.ErrServerError},
		{599, front.KindServerError, front.ErrServerError},
		{http.StatusTeapot, front.KindGeneric, front.ErrGeneric},
		{http.StatusMethodNotAllowed, front.KindGeneric, front.ErrGeneric},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, front.KindForStatus(tt.status))

			err := front.ErrorFromResponse(tt.status, nil, nil)
			require.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.status, err.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestErrorFromResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
		expectedCode    string
	}{
		{
			name:            "message and string code",
			status:          http.StatusBadRequest,
			body:            `{"message":"bad input","code":"invalid_field"}`,
			expectedMessage: "bad input",
			expectedCode:    "invalid_field",
		},
		{
			name:            "numeric code is ignored",
			status:          http.StatusBadRequest,
			body:            `{"message":"bad input","code":42}`,
			expectedMessage: "bad input",
		},
		{
			name:            "error envelope",
			status:          http.StatusNotFound,
			body:            `{"_error":{"status":404,"title":"Not found","message":"Unknown tag","code":"not_found"}}`,
			expectedMessage: "Unknown tag",
			expectedCode:    "not_found",
		},
		{
			name:            "missing message falls back to status text",
			status:          http.StatusConflict,
			body:            `{"code":"duplicate"}`,
			expectedMessage: "HTTP 409: Conflict",
			expectedCode:    "duplicate",
		},
		{
			name:            "non-string message falls back to status text",
			status:          http.StatusForbidden,
			body:            `{"message":{"text":"nope"}}`,
			expectedMessage: "HTTP 403: Forbidden",
		},
		{
			name:            "non-JSON body",
			status:          http.StatusBadGateway,
			body:            `<html>bad gateway</html>`,
			expectedMessage: "HTTP 502: Bad Gateway",
		},
		{
			name:            "empty body",
			status:          http.StatusInternalServerError,
			expectedMessage: "HTTP 500: Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			headers := http.Header{"X-Request-Id": []string{"req-1"}}

			err := front.ErrorFromResponse(tt.status, headers, []byte(tt.body))

			assert.Equal(t, tt.expectedMessage, err.Message)
			assert.Equal(t, tt.expectedCode, err.Code)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, tt.body, string(err.Payload))
			assert.Equal(t, "req-1", err.Headers.Get("X-Request-Id"))
		})
	}
}

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *front.Error
		expected string
	}{
		{
			name:     "status and code",
			err:      &front.Error{Kind: front.KindNotFound, Message: "Unknown tag", StatusCode: 404, Code: "not_found"},
			expected: "Unknown tag (status: 404) (code: not_found)",
		},
		{
			name:     "attempts",
			err:      &front.Error{Kind: front.KindRateLimited, Message: "slow down", StatusCode: 429, Attempts: 4},
			expected: "slow down (status: 429) after 4 attempts",
		},
		{
			name:     "wrapped cause",
			err:      front.NewNetworkError(1, errors.New("connection refused")),
			expected: "request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorMatching(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	netErr := front.NewNetworkError(4, cause)
	wrapped := fmt.Errorf("listing tags: %w", netErr)

	require.ErrorIs(t, wrapped, front.ErrNetwork)
	require.ErrorIs(t, wrapped, cause)
	assert.NotErrorIs(t, wrapped, front.ErrNotFound)
	assert.Equal(t, front.KindNetwork, front.KindOf(wrapped))
	assert.True(t, front.IsRetryable(wrapped))

	apiErr, ok := front.AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 4, apiErr.Attempts)

	assert.Equal(t, front.ErrorKind(""), front.KindOf(errors.New("plain")))
	_, ok = front.AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, front.IsNotFound(front.ErrorFromResponse(404, nil, nil)))
	assert.True(t, front.IsUnauthorized(front.ErrorFromResponse(401, nil, nil)))
	assert.True(t, front.IsForbidden(front.ErrorFromResponse(403, nil, nil)))
	assert.True(t, front.IsRateLimited(front.ErrorFromResponse(429, nil, nil)))
	assert.True(t, front.IsRetryable(front.ErrorFromResponse(429, nil, nil)))
	assert.False(t, front.IsRetryable(front.ErrorFromResponse(500, nil, nil)))

	authErr := front.NewAuthError("token refresh failed", 400, []byte(`{"error":"invalid_grant"}`), nil)
	require.ErrorIs(t, authErr, front.ErrAuth)
	assert.Equal(t, 400, authErr.StatusCode)

	require.ErrorIs(t, front.NewCancelledError(nil), front.ErrCancelled)
	require.ErrorIs(t, front.NewValidationError("missing id", nil), front.ErrValidation)
}
