/*
Package validator provides input validation with custom validation rules.

This package wraps go-playground/validator with one addition used across
the message-bus packages:
  - routingsegment: a routing-key segment per the `<namespace>.<type>.<from>.<to>`
    grammar (lowercase alphanumerics and underscore only)

Usage:

	import "github.com/madbomber/smart-message-sub002/pkg/validator"

	v := validator.New()

	// Validate struct
	err := v.ValidateStruct(myStruct)

	// Validate single value
	err := v.ValidateVar(field, "required,routingsegment")
*/
package validator
