package contract

import "fmt"

// MissingRequiredFieldError is returned by Build when an interaction lacks
// one of the fields needed to address its endpoints.
type MissingRequiredFieldError struct {
	Kind  Kind
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("%s contract is missing required field '%s'", e.Kind, e.Field)
}

// AmbiguousBodyMatcherError is returned under the reject conflict policy when
// two different matchers address the same path for the same mode.
type AmbiguousBodyMatcherError struct {
	Path string
	Mode Mode
}

func (e *AmbiguousBodyMatcherError) Error() string {
	return fmt.Sprintf("conflicting body matchers at path '%s' for %s mode", e.Path, e.Mode)
}
