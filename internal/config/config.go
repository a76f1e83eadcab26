package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// LLM contains the chat-completions connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Generation contains the parameters sent with every request.
type Generation struct {
	Seed            int     `toml:"seed"`
	Temperature     float64 `toml:"temperature"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
}

// Tokenizer selects the token counter. Exactly one of Model and Encoding is
// set after normalization; MaxPromptTokens of zero disables prompt budgeting.
type Tokenizer struct {
	Model           string `toml:"model"`
	Encoding        string `toml:"encoding"`
	MaxPromptTokens int    `toml:"max_prompt_tokens"`
}

// Classify controls how datasets are sent to the backend.
type Classify struct {
	Mode                  string `toml:"mode"`
	BatchSize             int    `toml:"batch_size"`
	Separator             string `toml:"separator"`
	Workers               int    `toml:"workers"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	CanonicalizeLabels    bool   `toml:"canonicalize_labels"`
}

// Dataset names the CSV columns holding the text and the true label.
type Dataset struct {
	TextColumn  string `toml:"text_column"`
	LabelColumn string `toml:"label_column"`
}

// Evaluation controls scoring policy.
type Evaluation struct {
	UnknownLabels string `toml:"unknown_labels"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for labelbench.
type Config struct {
	LLM        LLM        `toml:"llm"`
	Generation Generation `toml:"generation"`
	Tokenizer  Tokenizer  `toml:"tokenizer"`
	Classify   Classify   `toml:"classify"`
	Dataset    Dataset    `toml:"dataset"`
	Evaluation Evaluation `toml:"evaluation"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigLocation)
}

// Load locates, parses, and validates a configuration file. It reports the
// resolved path and whether a file was found there; a missing file yields
// the defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigLocation)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the trimmed backend connection settings.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
	Title   string
	Timeout time.Duration
}

// GetLLM returns the backend connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:  strings.TrimSpace(c.LLM.APIKey),
		BaseURL: strings.TrimSpace(c.LLM.BaseURL),
		Model:   strings.TrimSpace(c.LLM.Model),
		Referer: strings.TrimSpace(c.LLM.Referer),
		Title:   strings.TrimSpace(c.LLM.Title),
		Timeout: time.Duration(c.LLM.TimeoutSeconds) * time.Second,
	}
}

// RequestTimeout is the per-call deadline applied by the classification client.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Classify.RequestTimeoutSeconds) * time.Second
}

// Batched reports whether datasets are classified in batch mode.
func (c *Config) Batched() bool {
	return c.Classify.Mode == ModeBatch
}
