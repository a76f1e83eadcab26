package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"labelbench/internal/prompt"
	"labelbench/internal/services"
)

func demoConversation() prompt.Conversation {
	return prompt.Conversation{
		{Role: prompt.RoleInstruction, Content: "Label the text as Relevant or Irrelevant."},
		{Role: prompt.RoleExampleInput, Content: "Budget vote today"},
		{Role: prompt.RoleExampleOutput, Content: "Relevant"},
		{Role: prompt.RoleLiveInput, Content: "Hello world"},
	}
}

func writeCompletion(t *testing.T, w http.ResponseWriter, choice map[string]any) {
	t.Helper()
	payload := map[string]any{"choices": []any{choice}}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestGenerateSendsConversationAndParams(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("X-Request-ID"); got != "req-7" {
			t.Errorf("unexpected request id header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCompletion(t, w, map[string]any{
			"finish_reason": "stop",
			"message":       map[string]any{"content": "Relevant \n"},
		})
	}))
	defer server.Close()

	backend := NewChatBackend(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	ctx := services.WithRequestID(context.Background(), "req-7")
	out, err := backend.Generate(ctx, demoConversation(), Params{Seed: 7, Temperature: 0.2, MaxOutputTokens: 5})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "Relevant \n" {
		t.Fatalf("expected raw answer to be returned untrimmed, got %q", out)
	}
	if captured.Model != "demo-model" {
		t.Fatalf("unexpected model %q", captured.Model)
	}
	if captured.Seed == nil || *captured.Seed != 7 {
		t.Fatalf("expected seed 7, got %v", captured.Seed)
	}
	if captured.Temperature != 0.2 || captured.MaxTokens != 5 {
		t.Fatalf("unexpected sampling params %+v", captured)
	}
	wantRoles := []string{"system", "user", "assistant", "user"}
	if len(captured.Messages) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(captured.Messages))
	}
	for i, role := range wantRoles {
		if captured.Messages[i].Role != role {
			t.Fatalf("message %d role = %q, want %q", i, captured.Messages[i].Role, role)
		}
	}
	if captured.Messages[3].Content != "Hello world" {
		t.Fatalf("unexpected live content %q", captured.Messages[3].Content)
	}
}

func TestGenerateDeltaAndLegacyText(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta": {"delta": map[string]any{"content": "Irrelevant"}},
		"text":  {"text": "Irrelevant"},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeCompletion(t, w, choice)
			}))
			defer server.Close()

			backend := NewChatBackend(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
			out, err := backend.Generate(context.Background(), demoConversation(), DefaultParams())
			if err != nil {
				t.Fatalf("Generate returned error: %v", err)
			}
			if out != "Irrelevant" {
				t.Fatalf("unexpected answer %q", out)
			}
		})
	}
}

func TestGenerateHTTPErrorIsBackendErrorWithoutRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
	}))
	defer server.Close()

	backend := NewChatBackend(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := backend.Generate(context.Background(), demoConversation(), DefaultParams())
	if !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected StatusError 429, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly one request, got %d", got)
	}
}

func TestGenerateEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(t, w, map[string]any{
			"finish_reason": "length",
			"message":       map[string]any{"content": "  \n"},
		})
	}))
	defer server.Close()

	backend := NewChatBackend(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := backend.Generate(context.Background(), demoConversation(), DefaultParams())
	if !errors.Is(err, services.ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
	if !strings.Contains(err.Error(), "response_snippet=") || !strings.Contains(err.Error(), `finish_reason="length"`) {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	backend := NewChatBackend(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if _, err := backend.Generate(context.Background(), demoConversation(), DefaultParams()); !errors.Is(err, services.ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestGenerateAPIErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "model overloaded"}})
	}))
	defer server.Close()

	backend := NewChatBackend(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := backend.Generate(context.Background(), demoConversation(), DefaultParams())
	if !errors.Is(err, services.ErrBackend) || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected backend error with api message, got %v", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	backend := NewChatBackend(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := backend.Generate(ctx, demoConversation(), DefaultParams())
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestGenerateRequiresCredentials(t *testing.T) {
	backend := NewChatBackend(Config{Model: "demo-model"})
	if _, err := backend.Generate(context.Background(), demoConversation(), DefaultParams()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	backend = NewChatBackend(Config{APIKey: "k"})
	if _, err := backend.Generate(context.Background(), demoConversation(), DefaultParams()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing model, got %v", err)
	}
}

func TestHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(t, w, map[string]any{
			"message": map[string]any{"content": "```json\n{\"ok\":true}\n```"},
		})
	}))
	defer server.Close()

	backend := NewChatBackend(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := backend.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	backend := NewChatBackend(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := backend.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestDecodePing(t *testing.T) {
	cases := []struct {
		content string
		ok      bool
		wantErr bool
	}{
		{content: `{"ok":true}`, ok: true},
		{content: "```json\n{\"ok\": true}\n```", ok: true},
		{content: `Sure! {"ok":true}`, ok: true},
		{content: `{"ok":false}`, ok: false},
		{content: "pong", wantErr: true},
		{content: `{"ok":`, wantErr: true},
	}
	for _, tc := range cases {
		ok, err := decodePing(tc.content)
		if (err != nil) != tc.wantErr {
			t.Fatalf("decodePing(%q) error = %v, wantErr %v", tc.content, err, tc.wantErr)
		}
		if ok != tc.ok {
			t.Fatalf("decodePing(%q) = %v, want %v", tc.content, ok, tc.ok)
		}
	}
}

func TestHealthCheckRejectsNotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(t, w, map[string]any{
			"message": map[string]any{"content": `{"ok":false}`},
		})
	}))
	defer server.Close()

	backend := NewChatBackend(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := backend.HealthCheck(context.Background()); !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	bad := []Params{
		{Temperature: -0.1, MaxOutputTokens: 1},
		{Temperature: 1.5, MaxOutputTokens: 1},
		{Temperature: 0, MaxOutputTokens: 0},
	}
	for _, p := range bad {
		if err := p.Validate(); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("expected configuration error for %+v, got %v", p, err)
		}
	}
}

func TestScriptedBackend(t *testing.T) {
	backend := NewScripted("A", "B").FailWith(errors.New("boom"))
	if _, err := backend.Generate(context.Background(), demoConversation(), DefaultParams()); err == nil {
		t.Fatal("expected queued error first")
	}
	first, err := backend.Generate(context.Background(), demoConversation(), DefaultParams())
	if err != nil || first != "A" {
		t.Fatalf("unexpected first answer %q, %v", first, err)
	}
	second, _ := backend.Generate(context.Background(), demoConversation(), DefaultParams())
	if second != "B" {
		t.Fatalf("unexpected second answer %q", second)
	}
	if _, err := backend.Generate(context.Background(), demoConversation(), DefaultParams()); err == nil {
		t.Fatal("expected exhaustion error")
	}
	if len(backend.Calls()) != 4 {
		t.Fatalf("expected 4 recorded calls, got %d", len(backend.Calls()))
	}
}
