package errs

import (
	"strings"
	"time"
)

// Result values carried by every JSON response body.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Client-facing messages. Tests and handlers compare against these, so they
// are part of the API contract.
const (
	MsgUnknownEndpoint = "Unknown endpoint"
	MsgUnauthorized    = "Invalid or missing API key"
	MsgInvalidJSON     = "Invalid JSON format"
	MsgNotJSONObject   = "Request body must be a JSON object"
	MsgInternal        = "Internal server error"
	MsgTooManyRequests = "Too many requests"
)

// FieldError represents a field-level validation error.
//
//	{ "field": "model", "error": "must be one of: gpt claude gemini llama" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the main custom error type for API responses.
//
// Fields:
//   - Code: machine-friendly error code (e.g. "BAD_REQUEST").
//   - Message: human-friendly message, safe to show to the caller.
//   - Status: HTTP status code.
//   - Errors: per-field errors for validation failures.
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// Error makes *HTTPError satisfy the built-in error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also an *HTTPError. It does not compare
// Code or Status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		Errors:  e.Errors,
	}
}

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Result    string       `json:"result"`
	Message   string       `json:"message"`
	Timestamp string       `json:"timestamp"`
	Code      string       `json:"code"`
	Errors    []FieldError `json:"errors,omitempty"`
}

// Response renders the error envelope stamped with now.
func (e *HTTPError) Response(now time.Time) ErrorResponse {
	return ErrorResponse{
		Result:    ResultError,
		Message:   e.Message,
		Timestamp: FormatTimestamp(now),
		Code:      e.Code,
		Errors:    e.Errors,
	}
}

// FormatTimestamp renders t the way every response timestamp is rendered:
// RFC 3339 with nanoseconds, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// MakeUpperCaseWithUnderscores converts "Bad Request" into "BAD_REQUEST".
//
// Used to create stable machine-readable error codes from HTTP status text.
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
