package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sentimentTaskTOML = `name = "sentiment"
instructions = "Label the sentiment of the text as positive or negative."
categories = ["positive", "negative"]

[[exemplars]]
text = "I love this"
label = "positive"

[[exemplars]]
text = "This is awful"
label = "negative"
`

const sentimentCSV = `text,label
What a great day,positive
Terrible service,negative
I love the new design,positive
The food was cold,negative
`

type cliTestEnv struct {
	dir        string
	configPath string
	taskPath   string
	dataPath   string
}

// setupCLITestEnv writes a task, a labeled dataset and a config pointing at
// baseURL. An empty baseURL leaves the API key unset.
func setupCLITestEnv(t *testing.T, baseURL string) *cliTestEnv {
	t.Helper()
	for _, key := range []string{"LABELBENCH_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	env := &cliTestEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		taskPath:   filepath.Join(dir, "sentiment.toml"),
		dataPath:   filepath.Join(dir, "reviews.csv"),
	}
	var cfg strings.Builder
	cfg.WriteString("[llm]\n")
	if baseURL != "" {
		fmt.Fprintf(&cfg, "api_key = %q\nbase_url = %q\n", "test-key", baseURL)
	}
	cfg.WriteString("model = \"fake-model\"\ntimeout_seconds = 5\n\n")
	cfg.WriteString("[classify]\nworkers = 2\nbatch_size = 2\nrequest_timeout_seconds = 5\n\n")
	cfg.WriteString("[logging]\nlevel = \"warn\"\n")

	writeFile(t, env.configPath, cfg.String())
	writeFile(t, env.taskPath, sentimentTaskTOML)
	writeFile(t, env.dataPath, sentimentCSV)
	return env
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// newSentimentServer answers every line of the live input with positive when
// it mentions great or love, negative otherwise.
func newSentimentServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		content := `{"ok":true}`
		if len(req.Messages) > 0 {
			last := req.Messages[len(req.Messages)-1].Content
			if !strings.Contains(last, "Respond with") {
				lines := strings.Split(last, "\n")
				for i, line := range lines {
					lower := strings.ToLower(line)
					if strings.Contains(lower, "great") || strings.Contains(lower, "love") {
						lines[i] = "positive"
					} else {
						lines[i] = "negative"
					}
				}
				content = strings.Join(lines, "\n")
			}
		}
		payload := map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	return runCLIWithInput(t, args, configPath, nil)
}

func runCLIWithInput(t *testing.T, args []string, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
