package report

import (
	"errors"
	"fmt"
)

// Category classifies a run failure for the job tracker and the retry
// policy. Only CategoryCapacity is ever retried, and only once.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryInputNotFound Category = "input_not_found"
	CategoryInputFormat   Category = "input_format"
	CategoryCapacity      Category = "capacity"
	CategoryPersistence   Category = "persistence"
	CategoryInternal      Category = "internal"
)

// RunError is the typed failure surfaced to the orchestrator's caller. It
// carries the project the run belonged to and the step it failed at.
type RunError struct {
	Category  Category
	ProjectID string
	Step      string
	Err       error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("report %s failed at %s (%s): %v", e.ProjectID, e.Step, e.Category, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func newRunError(category Category, projectID, step string, err error) *RunError {
	return &RunError{
		Category:  category,
		ProjectID: projectID,
		Step:      step,
		Err:       err,
	}
}

// CategoryOf extracts the failure category from an error chain, defaulting
// to CategoryInternal for untyped errors.
func CategoryOf(err error) Category {
	var re *RunError
	if errors.As(err, &re) {
		return re.Category
	}
	return CategoryInternal
}
