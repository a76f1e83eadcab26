package llm

import (
	"context"
	"errors"
	"fmt"

	"labelbench/internal/prompt"
	"labelbench/internal/services"
)

// Backend generates text for a conversation.
type Backend interface {
	Generate(ctx context.Context, conv prompt.Conversation, params Params) (string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, conv prompt.Conversation, params Params) (string, error)

// Generate calls f.
func (f BackendFunc) Generate(ctx context.Context, conv prompt.Conversation, params Params) (string, error) {
	return f(ctx, conv, params)
}

const (
	DefaultSeed            = 42
	DefaultTemperature     = 0
	DefaultMaxOutputTokens = 16
)

// Params are the generation options every backend recognizes.
type Params struct {
	// Seed is a determinism hint; backends may still vary their output.
	Seed int `json:"seed"`
	// Temperature is in [0,1]; 0 is the most deterministic.
	Temperature float64 `json:"temperature"`
	// MaxOutputTokens caps the answer length.
	MaxOutputTokens int `json:"max_output_tokens"`
}

// DefaultParams returns deterministic settings sized for single-label answers.
func DefaultParams() Params {
	return Params{
		Seed:            DefaultSeed,
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.Temperature < 0 || p.Temperature > 1 {
		return services.Wrap(services.ErrConfiguration, "llm", "params", fmt.Sprintf("temperature %v must be between 0 and 1", p.Temperature), nil)
	}
	if p.MaxOutputTokens <= 0 {
		return services.Wrap(services.ErrConfiguration, "llm", "params", "max_output_tokens must be positive", nil)
	}
	return nil
}

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, e.Body)
}

// Is lets errors.Is match services.ErrBackend.
func (e *StatusError) Is(target error) bool {
	return target == services.ErrBackend
}

// EmptyContentError reports a completion without usable text.
type EmptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

// Is lets errors.Is match services.ErrEmptyResponse.
func (e *EmptyContentError) Is(target error) bool {
	return target == services.ErrEmptyResponse
}

// IsTimeout reports whether err came from an expired deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, services.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
