package evaluate

import (
	"fmt"

	"labelbench/internal/services"
)

// UnknownLabelError reports a label outside the category set under strict
// validation.
type UnknownLabelError struct {
	Label    string
	Position int
	// Field is "true" or "predicted".
	Field string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("evaluate: unknown %s label %q at position %d", e.Field, e.Label, e.Position)
}

// Is lets errors.Is match services.ErrUnknownLabel.
func (e *UnknownLabelError) Is(target error) bool {
	return target == services.ErrUnknownLabel
}
