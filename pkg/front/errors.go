package front

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed API call.
type ErrorKind string

// Error kinds. HTTP kinds are derived from the terminal status code; the
// remaining kinds describe failures that never produced a usable response.
const (
	KindBadRequest          ErrorKind = "bad_request"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindForbidden           ErrorKind = "forbidden"
	KindNotFound            ErrorKind = "not_found"
	KindConflict            ErrorKind = "conflict"
	KindUnprocessableEntity ErrorKind = "unprocessable_entity"
	KindRateLimited         ErrorKind = "rate_limited"
	KindServerError         ErrorKind = "server_error"
	KindGeneric             ErrorKind = "generic"
	KindNetwork             ErrorKind = "network"
	KindAuth                ErrorKind = "auth"
	KindCancelled           ErrorKind = "cancelled"
	KindValidation          ErrorKind = "validation"
)

// Sentinel errors matched by errors.Is against an *Error of the same kind.
var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUnprocessableEntity = errors.New("unprocessable entity")
	ErrRateLimited         = errors.New("rate limited")
	ErrServerError         = errors.New("server error")
	ErrGeneric             = errors.New("api error")
	ErrNetwork             = errors.New("network error")
	ErrAuth                = errors.New("authentication error")
	ErrCancelled           = errors.New("request cancelled")
	ErrValidation          = errors.New("validation error")
)

var kindSentinels = map[ErrorKind]error{
	KindBadRequest:          ErrBadRequest,
	KindUnauthorized:        ErrUnauthorized,
	KindForbidden:           ErrForbidden,
	KindNotFound:            ErrNotFound,
	KindConflict:            ErrConflict,
	KindUnprocessableEntity: ErrUnprocessableEntity,
	KindRateLimited:         ErrRateLimited,
	KindServerError:         ErrServerError,
	KindGeneric:             ErrGeneric,
	KindNetwork:             ErrNetwork,
	KindAuth:                ErrAuth,
	KindCancelled:           ErrCancelled,
	KindValidation:          ErrValidation,
}

// Error is the single error type returned by API calls. It is built once at
// the failure boundary and never mutated afterwards.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	// Code is the application error code, when the body carried one as a string.
	Code    string
	Payload []byte
	Headers http.Header
	// Attempts is the number of HTTP attempts made, when retries were involved.
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status: %d)", msg, e.StatusCode)
	}

	if e.Code != "" {
		msg = fmt.Sprintf("%s (code: %s)", msg, e.Code)
	}

	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]

	return ok && sentinel == target
}

// KindForStatus maps a terminal HTTP status to an error kind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusBadRequest:
		return KindBadRequest
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusUnprocessableEntity:
		return KindUnprocessableEntity
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= http.StatusInternalServerError && status <= 599:
		return KindServerError
	default:
		return KindGeneric
	}
}

// errorBody covers both the flat and the "_error" envelope shapes.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Code    json.RawMessage `json:"code"`
	Nested  *struct {
		Message json.RawMessage `json:"message"`
		Code    json.RawMessage `json:"code"`
	} `json:"_error"`
}

// ErrorFromResponse maps a non-success HTTP response into an *Error.
// The message prefers the body's "message" field and falls back to
// "HTTP <status>: <status text>". Code is kept only when it is a string.
func ErrorFromResponse(status int, headers http.Header, body []byte) *Error {
	apiErr := &Error{
		Kind:       KindForStatus(status),
		StatusCode: status,
		Payload:    body,
		Headers:    headers,
	}

	var parsed errorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		apiErr.Message = stringField(parsed.Message)
		apiErr.Code = stringField(parsed.Code)

		if parsed.Nested != nil {
			if apiErr.Message == "" {
				apiErr.Message = stringField(parsed.Nested.Message)
			}

			if apiErr.Code == "" {
				apiErr.Code = stringField(parsed.Nested.Code)
			}
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}

	return apiErr
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}

	return s
}

// NewNetworkError reports a transport failure after the given number of attempts.
func NewNetworkError(attempts int, err error) *Error {
	return &Error{
		Kind:     KindNetwork,
		Message:  "request failed",
		Attempts: attempts,
		Err:      err,
	}
}

// NewCancelledError reports a call abandoned because its context ended.
func NewCancelledError(err error) *Error {
	return &Error{
		Kind:    KindCancelled,
		Message: "request cancelled",
		Err:     err,
	}
}

// NewAuthError reports a failed OAuth refresh.
func NewAuthError(message string, status int, body []byte, err error) *Error {
	return &Error{
		Kind:       KindAuth,
		Message:    message,
		StatusCode: status,
		Payload:    body,
		Err:        err,
	}
}

// NewValidationError reports a payload missing a required field.
func NewValidationError(message string, payload []byte) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Payload: payload,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	return ""
}

// AsError returns the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsRateLimited checks if the error is a rate limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsRetryable reports whether the failure is one the transport retries.
func IsRetryable(err error) bool {
	kind := KindOf(err)

	return kind == KindRateLimited || kind == KindNetwork
}

// Static errors for err113 compliance.
var (
	ErrConfigRequired           = errors.New("config is required")
	ErrCredentialsRequired      = errors.New("either an API key or OAuth credentials are required")
	ErrAmbiguousCredentials     = errors.New("API key and OAuth credentials are mutually exclusive")
	ErrOAuthClientRequired      = errors.New("OAuth client ID and secret are required")
	ErrOAuthTokenRequired       = errors.New("OAuth access token or refresh token is required")
	ErrStaticTokenCannotRefresh = errors.New("static API key cannot be refreshed")
	ErrNotUsingOAuth            = errors.New("client is not configured for OAuth")
	ErrPathParamMissing         = errors.New("path parameter missing")
	ErrNoMoreItems              = errors.New("no more items")
)
