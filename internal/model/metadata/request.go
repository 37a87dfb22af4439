package metadata

import (
	"errors"
	"strings"

	"github.com/deppfellow/bltz-shield/internal/validation"
	"github.com/go-playground/validator/v10"
)

// AcceptMetadataRequest is the bound body of POST /metadata.
//
// Body always holds the decoded JSON object. Payload is filled by Validate
// when the schema is enforced.
type AcceptMetadataRequest struct {
	Body    map[string]any
	Payload *Payload

	schema *Schema
}

// BindBody decodes the raw request body. An empty body is an empty object.
func (r *AcceptMetadataRequest) BindBody(body []byte) error {
	obj, err := validation.DecodeJSONObject(body)
	if err != nil {
		return err
	}
	r.Body = obj
	return nil
}

// Validate checks model, timestamp and metadata_data in that order when the
// schema is enforced. Type mismatches are reported before tag rules.
func (r *AcceptMetadataRequest) Validate() error {
	if r.schema == nil || !r.schema.enforce {
		return nil
	}

	payload := &Payload{}
	typeErrors := map[string]string{}

	if raw, ok := r.Body[FieldModel]; ok {
		if s, isString := raw.(string); isString {
			payload.Model = s
		} else {
			typeErrors[FieldModel] = "must be a string"
		}
	}

	if raw, ok := r.Body[FieldTimestamp]; ok {
		if s, isString := raw.(string); isString {
			payload.Timestamp = s
		} else {
			typeErrors[FieldTimestamp] = "must be a string"
		}
	}

	if raw, ok := r.Body[FieldMetadataData]; ok {
		if m, isObject := raw.(map[string]any); isObject {
			payload.MetadataData = m
		} else {
			typeErrors[FieldMetadataData] = "must be an object"
		}
	}

	tagErrors := map[string]string{}
	if err := r.schema.validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		for _, fe := range validationErrors {
			msg := validation.FieldMessage(fe)
			if fe.Tag() == "supported_model" {
				msg = r.schema.modelMessage()
			}
			tagErrors[fe.Field()] = msg
		}
	}

	var failures validation.CustomValidationErrors
	for _, field := range []string{FieldModel, FieldTimestamp, FieldMetadataData} {
		if msg, ok := typeErrors[field]; ok {
			failures = append(failures, validation.CustomValidationError{Field: field, Message: msg})
		} else if msg, ok := tagErrors[field]; ok {
			failures = append(failures, validation.CustomValidationError{Field: field, Message: msg})
		}
	}

	if len(failures) > 0 {
		return failures
	}

	payload.Model = strings.ToLower(payload.Model)
	r.Payload = payload
	return nil
}

// Record builds the row to store for a validated payload.
func (p *Payload) Record() (Record, error) {
	ts, err := validation.ParseISOTime(p.Timestamp)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Model:     strings.ToLower(p.Model),
		Timestamp: ts.UTC(),
		MetaData:  p.MetadataData,
	}, nil
}

// DefaultRecentLimit and MaxRecentLimit bound GET /metadata/recent.
const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// RecentMetadataRequest is the bound query of GET /metadata/recent.
type RecentMetadataRequest struct {
	Limit int    `query:"limit" validate:"min=1,max=100"`
	Model string `query:"model"`

	schema *Schema
}

// Validate checks the limit bounds and that model, if given, is supported.
func (r *RecentMetadataRequest) Validate() error {
	if err := r.schema.validate.Struct(r); err != nil {
		return err
	}
	if r.Model != "" && !r.schema.Supports(r.Model) {
		return validation.CustomValidationErrors{
			{Field: "model", Message: r.schema.modelMessage()},
		}
	}
	return nil
}

// Filter converts the request into a repository filter.
func (r *RecentMetadataRequest) Filter() RecentFilter {
	return RecentFilter{
		Limit: r.Limit,
		Model: strings.ToLower(r.Model),
	}
}
