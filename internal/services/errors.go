package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrValidation     = errors.New("validation error")
	ErrBackend        = errors.New("backend error")
	ErrEmptyResponse  = errors.New("empty response")
	ErrCountMismatch  = errors.New("count mismatch")
	ErrUnknownLabel   = errors.New("unknown label")
	ErrTimeout        = errors.New("timeout")
	ErrBudgetExceeded = errors.New("token budget exceeded")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrBackend
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Exit statuses reported by the CLI.
const (
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitInvalidData   = 3
)

// ExitCode maps an error to the process exit status the CLI should report.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnknownLabel):
		return ExitInvalidData
	default:
		return ExitFailure
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
