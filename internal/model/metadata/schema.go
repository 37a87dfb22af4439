package metadata

import (
	"fmt"
	"slices"
	"strings"

	"github.com/deppfellow/bltz-shield/internal/validation"
	"github.com/go-playground/validator/v10"
)

// Schema carries the metadata rules for the lifetime of the process: whether
// structured payloads are enforced and which models are accepted. It builds
// the per-request payload types.
type Schema struct {
	enforce  bool
	models   []string
	validate *validator.Validate
}

// NewSchema builds a Schema. models are matched case-insensitively.
func NewSchema(enforce bool, models []string) *Schema {
	normalized := make([]string, 0, len(models))
	for _, m := range models {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(m)))
	}

	s := &Schema{
		enforce: enforce,
		models:  normalized,
	}

	v := validation.New()
	_ = v.RegisterValidation("supported_model", func(fl validator.FieldLevel) bool {
		return s.Supports(fl.Field().String())
	})
	s.validate = v

	return s
}

// Enforced reports whether structured payloads are required.
func (s *Schema) Enforced() bool {
	return s.enforce
}

// Models returns the accepted model names.
func (s *Schema) Models() []string {
	return slices.Clone(s.models)
}

// Supports reports whether model is in the accepted set, ignoring case.
func (s *Schema) Supports(model string) bool {
	return slices.Contains(s.models, strings.ToLower(model))
}

// NewAcceptRequest returns an empty request ready to be bound.
func (s *Schema) NewAcceptRequest() *AcceptMetadataRequest {
	return &AcceptMetadataRequest{schema: s}
}

// NewRecentRequest returns a listing request with the default limit.
func (s *Schema) NewRecentRequest() *RecentMetadataRequest {
	return &RecentMetadataRequest{Limit: DefaultRecentLimit, schema: s}
}

// modelMessage is the field error for an unsupported model.
func (s *Schema) modelMessage() string {
	return fmt.Sprintf("must be one of: %s", strings.Join(s.models, " "))
}
