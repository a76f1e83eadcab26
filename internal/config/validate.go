package config

import (
	"errors"
	"fmt"
	"strings"

	"labelbench/internal/services"
)

// Validate ensures the configuration is usable. Errors match
// services.ErrConfiguration.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateLLM,
		c.validateGeneration,
		c.validateTokenizer,
		c.validateClassify,
		c.validateEvaluation,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
		}
	}
	return nil
}

// RequireAPIKey reports a missing credential. Commands that never contact the
// backend skip this check.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigLocation
	}
	return fmt.Errorf("%w: llm.api_key is required. Set %s or edit %s (create with 'labelbench config init')",
		services.ErrConfiguration, strings.Join(apiKeyEnv, ", "), defaultPath)
}

func (c *Config) validateLLM() error {
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if !strings.HasPrefix(c.LLM.BaseURL, "http://") && !strings.HasPrefix(c.LLM.BaseURL, "https://") {
		return fmt.Errorf("llm.base_url must be an http(s) URL, got %q", c.LLM.BaseURL)
	}
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 1 {
		return errors.New("generation.temperature must be between 0 and 1")
	}
	if c.Generation.MaxOutputTokens <= 0 {
		return errors.New("generation.max_output_tokens must be positive")
	}
	return nil
}

func (c *Config) validateTokenizer() error {
	if c.Tokenizer.Model != "" && c.Tokenizer.Encoding != "" {
		return errors.New("tokenizer.model and tokenizer.encoding are mutually exclusive")
	}
	if c.Tokenizer.MaxPromptTokens < 0 {
		return errors.New("tokenizer.max_prompt_tokens must not be negative")
	}
	return nil
}

func (c *Config) validateClassify() error {
	switch c.Classify.Mode {
	case ModeSingle, ModeBatch:
	default:
		return fmt.Errorf("classify.mode must be %q or %q, got %q", ModeSingle, ModeBatch, c.Classify.Mode)
	}
	if c.Classify.BatchSize < 1 {
		return errors.New("classify.batch_size must be at least 1")
	}
	if c.Classify.Workers < 1 {
		return errors.New("classify.workers must be at least 1")
	}
	if c.Classify.RequestTimeoutSeconds < 0 {
		return errors.New("classify.request_timeout_seconds must not be negative")
	}
	if strings.TrimSpace(c.Classify.Separator) == "" && !strings.Contains(c.Classify.Separator, "\n") {
		return errors.New("classify.separator must contain a newline or a visible character")
	}
	return nil
}

func (c *Config) validateEvaluation() error {
	switch c.Evaluation.UnknownLabels {
	case UnknownLenient, UnknownStrict:
		return nil
	default:
		return fmt.Errorf("evaluation.unknown_labels must be %q or %q, got %q", UnknownLenient, UnknownStrict, c.Evaluation.UnknownLabels)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
