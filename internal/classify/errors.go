package classify

import (
	"fmt"

	"labelbench/internal/services"
)

// CountMismatchError reports a batch answer whose segment count differs from
// the number of submitted inputs.
type CountMismatchError struct {
	Want     int
	Got      int
	Response string
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("classify batch: %d inputs but %d answers in response %q", e.Want, e.Got, e.Response)
}

// Is lets errors.Is match services.ErrCountMismatch.
func (e *CountMismatchError) Is(target error) bool {
	return target == services.ErrCountMismatch
}
