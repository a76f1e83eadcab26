package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"labelbench/internal/prompt"
	"labelbench/internal/services"
)

const (
	jsonResponseType   = "json_object"
	defaultBaseURL     = "https://api.openai.com/v1/chat/completions"
	defaultHTTPTimeout = 30 * time.Second
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// ChatBackend wraps an OpenAI-compatible chat completion API.
type ChatBackend struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the backend.
type Option func(*ChatBackend)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *ChatBackend) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewChatBackend constructs a backend using the supplied configuration.
func NewChatBackend(cfg Config, opts ...Option) *ChatBackend {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	backend := &ChatBackend{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(backend)
	}
	if backend.cfg.BaseURL == "" {
		backend.cfg.BaseURL = defaultBaseURL
	}
	return backend
}

// Model returns the configured model identifier.
func (c *ChatBackend) Model() string {
	return c.cfg.Model
}

// Generate issues one chat completion for conv and returns the answer text.
func (c *ChatBackend) Generate(ctx context.Context, conv prompt.Conversation, params Params) (string, error) {
	if err := c.ready("llm generate"); err != nil {
		return "", err
	}
	if len(conv) == 0 {
		return "", services.Wrap(services.ErrValidation, "llm", "generate", "conversation is empty", nil)
	}
	seed := params.Seed
	payload := chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    encodeConversation(conv),
		Temperature: params.Temperature,
		Seed:        &seed,
		MaxTokens:   params.MaxOutputTokens,
	}
	return c.completionContent(ctx, payload, "llm generate")
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *ChatBackend) HealthCheck(ctx context.Context) error {
	if err := c.ready("llm health"); err != nil {
		return err
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: "Respond with {\"ok\":true}"},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	content, err := c.completionContent(ctx, payload, "llm health")
	if err != nil {
		return err
	}
	ok, err := decodePing(content)
	if err != nil {
		return services.Wrap(services.ErrBackend, "llm health", "parse payload", "", err)
	}
	if !ok {
		return services.Wrap(services.ErrBackend, "llm health", "", "unexpected response", nil)
	}
	return nil
}

func (c *ChatBackend) ready(op string) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, op, "", "api key required", nil)
	}
	if c.cfg.Model == "" {
		return services.Wrap(services.ErrConfiguration, op, "", "model required", nil)
	}
	return nil
}

func encodeConversation(conv prompt.Conversation) []chatMessage {
	messages := make([]chatMessage, 0, len(conv))
	for _, turn := range conv {
		messages = append(messages, chatMessage{Role: turn.Role.ChatRole(), Content: turn.Content})
	}
	return messages
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	Seed           *int              `json:"seed,omitempty"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema (delta) even when
		// stream=false.
		Delta chatCompletionMessage `json:"delta"`
		// Legacy completion-style responses.
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

func (c *ChatBackend) completionContent(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	completion, body, err := c.sendChatRequestOnce(ctx, payload)
	if err != nil {
		return "", err
	}
	content, finishReason := extractCompletionPayload(completion)
	if content != "" {
		return content, nil
	}
	if len(completion.Choices) == 0 {
		return "", services.Wrap(services.ErrEmptyResponse, op, "", "empty choices", nil)
	}
	return "", &EmptyContentError{
		Op:           op,
		FinishReason: finishReason,
		Refusal:      extractCompletionRefusal(completion),
		Snippet:      summarizePayloadSnippet(string(body)),
	}
}

// extractCompletionPayload returns the first non-blank answer untrimmed;
// normalizing it is the caller's job.
func extractCompletionPayload(completion chatCompletionResponse) (string, string) {
	var finishReason string
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		for _, candidate := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if strings.TrimSpace(candidate) != "" {
				return candidate, finishReason
			}
		}
	}
	return "", finishReason
}

func extractCompletionRefusal(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if refusal := firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (c *ChatBackend) sendChatRequestOnce(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "")
	if err != nil {
		return completion, nil, services.Wrap(services.ErrConfiguration, "llm request", "build url", "", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", id)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, transportError(err, c.timeoutDuration())
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, nil, transportError(fmt.Errorf("read body: %w", err), c.timeoutDuration())
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return completion, body, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, services.Wrap(services.ErrBackend, "llm request", "decode response", summarizePayloadSnippet(string(body)), err)
	}
	if completion.Error != nil {
		return completion, body, services.Wrap(services.ErrBackend, "llm request", "api error", completion.Error.Message, nil)
	}
	return completion, body, nil
}

func transportError(err error, timeout time.Duration) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("llm request: %w", err)
	}
	if IsTimeout(err) {
		return services.Wrap(services.ErrTimeout, "llm request", "", fmt.Sprintf("timeout=%s", timeout), err)
	}
	return services.Wrap(services.ErrBackend, "llm request", "http error", "", err)
}

func (c *ChatBackend) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

// decodePing reads the health-check object. Models often wrap it in a code
// fence or a sentence, so only the outermost braces are decoded.
func decodePing(content string) (bool, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return false, fmt.Errorf("no json object in %s", summarizePayloadSnippet(content))
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return false, fmt.Errorf("%w (payload snippet: %s)", err, summarizePayloadSnippet(content))
	}
	return parsed.OK, nil
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
