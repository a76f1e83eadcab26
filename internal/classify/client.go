package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"labelbench/internal/logging"
	"labelbench/internal/prompt"
	"labelbench/internal/services"
	"labelbench/internal/services/llm"
	"labelbench/internal/task"
)

// Result pairs one input with the backend's answer.
type Result struct {
	Index int    `json:"index"`
	Input string `json:"input"`
	// Raw is the backend text for this input before trimming.
	Raw string `json:"raw"`
	// Label is the trimmed answer, rewritten to the category spelling when
	// canonical labels are enabled.
	Label string `json:"label"`
	// Valid reports whether Label belongs to the category set.
	Valid bool `json:"valid"`
}

// Client classifies text against one task.
type Client struct {
	backend   llm.Backend
	task      task.Task
	builder   prompt.Builder
	params    llm.Params
	timeout   time.Duration
	canonical bool
	counter   prompt.Counter
	maxTokens int
	logger    *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithTimeout abandons any call that runs longer than d. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithSeparator overrides the batch separator (default newline).
func WithSeparator(sep string) Option {
	return func(c *Client) {
		c.builder.Separator = sep
	}
}

// WithCanonicalLabels rewrites answers that match a category under case
// folding to the category's own spelling.
func WithCanonicalLabels(enabled bool) Option {
	return func(c *Client) {
		c.canonical = enabled
	}
}

// WithBudget drops trailing exemplars so each prompt fits in maxTokens.
func WithBudget(counter prompt.Counter, maxTokens int) Option {
	return func(c *Client) {
		c.counter = counter
		c.maxTokens = maxTokens
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New validates its inputs and returns a client.
func New(backend llm.Backend, t task.Task, params llm.Params, opts ...Option) (*Client, error) {
	if backend == nil {
		return nil, services.Wrap(services.ErrConfiguration, "classify", "new", "backend is required", nil)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		backend: backend,
		task:    t,
		builder: prompt.NewBuilder(t, prompt.DefaultSeparator),
		params:  params,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.builder.Separator == "" {
		return nil, services.Wrap(services.ErrConfiguration, "classify", "new", "separator must not be empty", nil)
	}
	if c.timeout < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "classify", "new", "timeout must not be negative", nil)
	}
	c.logger = logging.NewComponentLogger(c.logger, "classify")
	return c, nil
}

// Classify labels one input with a single backend call.
func (c *Client) Classify(ctx context.Context, exemplars []task.Exemplar, input string) (Result, error) {
	if err := task.ValidateExemplars(c.task.Categories, exemplars); err != nil {
		return Result{}, err
	}
	conv, err := c.builder.Fit(c.counter, c.maxTokens, exemplars, input)
	if err != nil {
		return Result{}, err
	}
	raw, err := c.generate(ctx, conv, 1)
	if err != nil {
		return Result{}, err
	}
	index, _ := services.ItemIndexFromContext(ctx)
	return c.result(index, input, raw), nil
}

// ClassifyBatch labels every input with one backend call. Results are in
// input order and indexed from 0.
func (c *Client) ClassifyBatch(ctx context.Context, exemplars []task.Exemplar, inputs []string) ([]Result, error) {
	if err := task.ValidateExemplars(c.task.Categories, exemplars); err != nil {
		return nil, err
	}
	conv, err := c.builder.FitBatch(c.counter, c.maxTokens, exemplars, inputs)
	if err != nil {
		return nil, err
	}
	raw, err := c.generate(ctx, conv, len(inputs))
	if err != nil {
		return nil, err
	}
	segments := SplitAnswers(raw, c.builder.Separator)
	if len(segments) != len(inputs) {
		mismatch := &CountMismatchError{Want: len(inputs), Got: len(segments), Response: raw}
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "batch answer count mismatch", "classify_count_mismatch",
			logging.Int("inputs", len(inputs)),
			logging.Int("answers", len(segments)),
			logging.String(logging.FieldErrorHint, "reduce classify.batch_size or use single mode"),
			logging.String(logging.FieldImpact, "batch discarded"),
		)
		return nil, mismatch
	}
	results := make([]Result, len(inputs))
	for i, input := range inputs {
		results[i] = c.result(i, input, segments[i])
	}
	return results, nil
}

// SplitAnswers splits a batch answer on sep. Whitespace around the whole
// answer and one trailing separator are ignored; blank segments elsewhere
// count as answers so gaps surface as mismatches. A leading separator is not
// stripped: "|A|B" yields three segments, the first blank. A newline
// separator is the exception in practice, since trimming the answer already
// removes leading newlines.
func SplitAnswers(raw, sep string) []string {
	body := strings.TrimSpace(raw)
	if core := strings.TrimSpace(sep); core != "" {
		body = strings.TrimSpace(strings.TrimSuffix(body, core))
	}
	if body == "" {
		return nil
	}
	return strings.Split(body, sep)
}

func (c *Client) result(index int, input, raw string) Result {
	label := strings.TrimSpace(raw)
	valid := c.task.Categories.Contains(label)
	if !valid && c.canonical {
		if canonical, ok := c.task.Categories.Canonical(label); ok {
			label, valid = canonical, true
		}
	}
	return Result{Index: index, Input: input, Raw: raw, Label: label, Valid: valid}
}

func (c *Client) generate(ctx context.Context, conv prompt.Conversation, items int) (string, error) {
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()
	raw, err := c.backend.Generate(ctx, conv, c.params)
	elapsed := time.Since(started)
	if err != nil {
		err = classifyBackendError(ctx, err, c.timeout)
		logger.Debug("backend call failed",
			logging.Int("items", items),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", services.Wrap(services.ErrEmptyResponse, "classify", "generate", "backend returned no text", nil)
	}
	logger.Debug("backend call completed",
		logging.Int("items", items),
		logging.Int("exemplars", conv.ExemplarCount()),
		logging.Duration("elapsed", elapsed),
	)
	return raw, nil
}

func classifyBackendError(ctx context.Context, err error, timeout time.Duration) error {
	switch {
	case errors.Is(err, services.ErrTimeout), errors.Is(err, services.ErrBackend),
		errors.Is(err, services.ErrEmptyResponse), errors.Is(err, services.ErrConfiguration),
		errors.Is(err, services.ErrValidation):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "classify", "generate", fmt.Sprintf("deadline exceeded (timeout=%s)", timeout), err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return services.Wrap(services.ErrBackend, "classify", "generate", "", err)
	}
}
