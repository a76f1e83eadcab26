package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeLLM()
	c.normalizeTokenizer()
	c.normalizeClassify()
	c.normalizeDataset()
	c.Evaluation.UnknownLabels = strings.ToLower(strings.TrimSpace(c.Evaluation.UnknownLabels))
	if c.Evaluation.UnknownLabels == "" {
		c.Evaluation.UnknownLabels = defaultUnknownLabels
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, key := range apiKeyEnv {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTokenizer() {
	c.Tokenizer.Model = strings.TrimSpace(c.Tokenizer.Model)
	c.Tokenizer.Encoding = strings.ToLower(strings.TrimSpace(c.Tokenizer.Encoding))
	if c.Tokenizer.Model == "" && c.Tokenizer.Encoding == "" {
		c.Tokenizer.Encoding = defaultTokenizerEncoding
	}
}

func (c *Config) normalizeClassify() {
	c.Classify.Mode = strings.ToLower(strings.TrimSpace(c.Classify.Mode))
	if c.Classify.Mode == "" {
		c.Classify.Mode = defaultClassifyMode
	}
	if c.Classify.Separator == "" {
		c.Classify.Separator = defaultSeparator
	}
	if c.Classify.BatchSize == 0 {
		c.Classify.BatchSize = defaultBatchSize
	}
	if c.Classify.Workers == 0 {
		c.Classify.Workers = defaultWorkers
	}
}

func (c *Config) normalizeDataset() {
	c.Dataset.TextColumn = strings.TrimSpace(c.Dataset.TextColumn)
	if c.Dataset.TextColumn == "" {
		c.Dataset.TextColumn = defaultTextColumn
	}
	c.Dataset.LabelColumn = strings.TrimSpace(c.Dataset.LabelColumn)
	if c.Dataset.LabelColumn == "" {
		c.Dataset.LabelColumn = defaultLabelColumn
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) == "" {
		c.Logging.File = ""
		return nil
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
