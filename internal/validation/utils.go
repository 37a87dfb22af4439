package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payload types that know how to
// validate themselves.
//
// Validate returns validator.ValidationErrors, CustomValidationErrors, or nil.
type Validatable interface {
	Validate() error
}

// BodyBinder is implemented by payloads that decode the raw request body
// themselves instead of going through echo's binder.
type BodyBinder interface {
	BindBody(body []byte) error
}

// CustomValidationError represents a single validation issue for a specific
// field that cannot be expressed via validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// ErrNotJSONObject is returned by DecodeJSONObject for valid JSON documents
// that are not objects.
var ErrNotJSONObject = errors.New("json document is not an object")

var errInvalidUTF8 = errors.New("json document is not valid UTF-8")

// BindAndValidate binds request data into payload and validates it.
//
// Flow:
//  1. BodyBinder payloads get the raw body; everything else goes through
//     c.Bind (path, query and body).
//  2. payload.Validate() applies validation rules.
//  3. Failures come back as *errs.HTTPError (400), with field errors when
//     validation fails.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if binder, ok := payload.(BodyBinder); ok {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			// Oversized bodies are cut off by the body limit middleware,
			// which reports its own status.
			var echoErr *echo.HTTPError
			if errors.As(err, &echoErr) {
				return err
			}
			return fmt.Errorf("reading request body: %w", err)
		}

		if err := binder.BindBody(body); err != nil {
			if errors.Is(err, ErrNotJSONObject) {
				return errs.NewBadRequestError(errs.MsgNotJSONObject, nil, nil)
			}
			return errs.NewBadRequestError(errs.MsgInvalidJSON, nil, nil)
		}
	} else if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError("Invalid request parameters", nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, nil, fieldErrors)
	}

	return nil
}

// DecodeJSONObject parses body as a single JSON object.
//
// An empty body decodes to an empty object and a body that is not UTF-8 is
// rejected. Numbers are kept as json.Number so they are echoed back exactly
// as sent.
func DecodeJSONObject(body []byte) (map[string]any, error) {
	if len(body) == 0 {
		return map[string]any{}, nil
	}

	// encoding/json would silently turn invalid bytes into U+FFFD.
	if !utf8.Valid(body) {
		return nil, errInvalidUTF8
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	// Anything after the first document makes the body invalid JSON.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrNotJSONObject
	}
	return obj, nil
}

// validateStruct calls v.Validate() and extracts field errors if validation fails.
func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

// extractValidationError converts validator or custom errors into field
// errors. The message names the first failing field.
func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var validationErrors validator.ValidationErrors
	var customValidationErrors CustomValidationErrors

	switch {
	case errors.As(err, &customValidationErrors):
		for _, err := range customValidationErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: err.Field,
				Error: err.Message,
			})
		}
	case errors.As(err, &validationErrors):
		for _, err := range validationErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: strings.ToLower(err.Field()),
				Error: FieldMessage(err),
			})
		}
	default:
		fieldErrors = append(fieldErrors, errs.FieldError{Field: "body", Error: err.Error()})
	}

	if len(fieldErrors) == 0 {
		return "Validation failed", []errs.FieldError{}
	}

	first := fieldErrors[0]
	return fmt.Sprintf("Invalid %s: %s", first.Field, first.Error), fieldErrors
}

// FieldMessage renders a single validator failure as a short phrase
// ("is required", "must not exceed 100").
func FieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"

	case "min":
		if err.Type().Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", err.Param())
		}
		return fmt.Sprintf("must be at least %s", err.Param())

	case "max":
		if err.Type().Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", err.Param())
		}
		return fmt.Sprintf("must not exceed %s", err.Param())

	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())

	case "lowercase":
		return "must be lowercase"

	case "isotime":
		return "must be an ISO-8601 date-time"

	case "uuid":
		return "must be a valid UUID"

	default:
		if err.Param() != "" {
			return fmt.Sprintf("%s: %s:%s", strings.ToLower(err.Field()), err.Tag(), err.Param())
		}
		return fmt.Sprintf("%s: %s", strings.ToLower(err.Field()), err.Tag())
	}
}

// isoLayouts are the ISO-8601 forms accepted for client timestamps, most
// specific first. Layouts without a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseISOTime parses an ISO-8601 date or date-time string.
func ParseISOTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp: %q", value)
}

// IsISOTime is the validator function behind the "isotime" tag.
func IsISOTime(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	_, err := ParseISOTime(fl.Field().String())
	return err == nil
}

// JSONFieldName makes validator report fields by their json tag.
func JSONFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "query"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// New returns a validator with the project's custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(JSONFieldName)
	_ = v.RegisterValidation("isotime", IsISOTime)
	return v
}
