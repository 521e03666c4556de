package toolerr

import "fmt"

// MissingArgumentError reports a required tool argument that was not
// supplied. Handlers validate defensively; they never assume upstream schema
// validation ran.
type MissingArgumentError struct {
	Key string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s is required", e.Key)
}

// BatchSizeError reports a batch outside the gateway's 1-10 record window.
type BatchSizeError struct {
	Count int
	Max   int
}

func (e *BatchSizeError) Error() string {
	if e.Count == 0 {
		return "records must be a non-empty array"
	}
	return fmt.Sprintf("maximum %d records per batch operation, got %d", e.Max, e.Count)
}

// NotFoundError reports a table or record that could not be resolved by ID
// or name.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// ValidationError reports malformed (but present) tool arguments.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// SanitizerUnavailableError reports that the formula-safety layer is
// disabled and a handler refused to forward user-supplied filter text.
type SanitizerUnavailableError struct{}

func (e *SanitizerUnavailableError) Error() string {
	return "formula sanitizer is disabled; raw filter or search text will not be forwarded"
}
