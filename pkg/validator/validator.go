package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// routingSegmentRegex matches one segment of a routing key or pattern:
// lowercase letters, digits, and underscore. Dots are the separator and
// are never part of a segment.
var routingSegmentRegex = regexp.MustCompile(`^[a-z0-9_]+$`)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("routingsegment", validateRoutingSegment)

	return &Validator{
		validate: v,
	}
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// ValidateVar validates a single variable against a tag
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// IsRoutingSegment reports whether s is a valid routing-key/pattern
// segment on its own, without going through the struct-tag machinery.
func IsRoutingSegment(s string) bool {
	return routingSegmentRegex.MatchString(s)
}

func validateRoutingSegment(fl validator.FieldLevel) bool {
	return routingSegmentRegex.MatchString(fl.Field().String())
}
