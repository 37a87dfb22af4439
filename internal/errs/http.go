package errs

import (
	"net/http"
)

// statusCode turns an HTTP status into its machine code, e.g. 404 => "NOT_FOUND".
func statusCode(status int) string {
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}

// NewUnauthorizedError creates a 401 Unauthorized HTTPError.
func NewUnauthorizedError(message string) *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusUnauthorized),
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// This supports extra payload:
//   - code: optional custom code string (if nil, defaults to "BAD_REQUEST")
//   - errors: optional slice of field errors (validation errors)
func NewBadRequestError(message string, code *string, errors []FieldError) *HTTPError {
	formattedCode := statusCode(http.StatusBadRequest)
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:    formattedCode,
		Message: message,
		Status:  http.StatusBadRequest,
		Errors:  errors,
	}
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string) *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusNotFound),
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// NewUnknownEndpointError is the 404 returned for every unrouted
// method/path pair.
func NewUnknownEndpointError() *HTTPError {
	return NewNotFoundError(MsgUnknownEndpoint)
}

// NewTooManyRequestsError creates a 429 Too Many Requests HTTPError.
func NewTooManyRequestsError() *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusTooManyRequests),
		Message: MsgTooManyRequests,
		Status:  http.StatusTooManyRequests,
	}
}

// NewInternalServerError creates a 500 Internal Server Error HTTPError.
//
// The message is always the generic one: internal detail goes to the logs,
// never to the client.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusInternalServerError),
		Message: MsgInternal,
		Status:  http.StatusInternalServerError,
	}
}

// NewFromStatus wraps an arbitrary status (typically one raised by echo's
// own middleware, such as 413) in the same envelope.
func NewFromStatus(status int, message string) *HTTPError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &HTTPError{
		Code:    statusCode(status),
		Message: message,
		Status:  status,
	}
}
