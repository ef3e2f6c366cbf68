package message

import "fmt"

// FieldError is one field-level validation failure.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError reports one or more field-level failures found while
// validating a message instance (required properties, header rules).
type ValidationError struct {
	Class  string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: validation failed", e.Class)
	}
	return fmt.Sprintf("%s: validation failed: %s: %s", e.Class, e.Fields[0].Field, e.Fields[0].Reason)
}

// Add appends a field failure and returns the receiver for chaining.
func (e *ValidationError) Add(field, reason string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
	return e
}

// HasErrors reports whether any field failure was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// VersionMismatch is returned by FromEnvelope when the decoded header's
// version does not match the class's current version.
type VersionMismatch struct {
	Class      string
	Wire       int
	Registered int
}

func (e *VersionMismatch) Error() string {
	return fmt.Sprintf("%s: wire version %d does not match registered version %d", e.Class, e.Wire, e.Registered)
}
