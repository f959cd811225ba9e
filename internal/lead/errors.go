package lead

import "fmt"

// ValidationError reports a rejected submission field. The message is
// safe to surface to the form.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
