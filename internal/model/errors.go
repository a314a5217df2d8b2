package model

import "fmt"

// ValidationError reports a structurally invalid record. It is returned
// before any state mutation; nothing that fails validation is stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}
