package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"labelbench/internal/classify"
	"labelbench/internal/config"
	"labelbench/internal/evaluate"
	"labelbench/internal/logging"
	"labelbench/internal/services/llm"
	"labelbench/internal/task"
	"labelbench/internal/tokens"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// loggerFor builds the process logger once, writing to the command's stderr.
func (c *commandContext) loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) newCounter(model, encoding string) (*tokens.Counter, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	model = strings.TrimSpace(model)
	encoding = strings.TrimSpace(encoding)
	if model == "" && encoding == "" {
		model, encoding = cfg.Tokenizer.Model, cfg.Tokenizer.Encoding
	}
	return tokens.New(tokens.Options{Model: model, Encoding: encoding})
}

// newBackend returns the chat backend, or a canned backend when dryRun is
// set so pipelines can be exercised without credentials.
func (c *commandContext) newBackend(t task.Task, dryRun, batch bool) (llm.Backend, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if dryRun {
		return dryRunBackend(t.Categories[0], cfg.Classify.Separator, batch), nil
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	return c.chatBackend(), nil
}

func (c *commandContext) chatBackend() *llm.ChatBackend {
	settings := c.config.GetLLM()
	return llm.NewChatBackend(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: int(settings.Timeout.Seconds()),
	})
}

func (c *commandContext) newClient(cmd *cobra.Command, t task.Task, dryRun, batch bool) (*classify.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	backend, err := c.newBackend(t, dryRun, batch)
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, err
	}
	opts := []classify.Option{
		classify.WithSeparator(cfg.Classify.Separator),
		classify.WithTimeout(cfg.RequestTimeout()),
		classify.WithCanonicalLabels(cfg.Classify.CanonicalizeLabels),
		classify.WithLogger(logger),
	}
	if cfg.Tokenizer.MaxPromptTokens > 0 {
		counter, err := c.newCounter("", "")
		if err != nil {
			return nil, err
		}
		opts = append(opts, classify.WithBudget(counter, cfg.Tokenizer.MaxPromptTokens))
	}
	params := llm.Params{
		Seed:            cfg.Generation.Seed,
		Temperature:     cfg.Generation.Temperature,
		MaxOutputTokens: cfg.Generation.MaxOutputTokens,
	}
	return classify.New(backend, t, params, opts...)
}

func (c *commandContext) newEvaluator(categories task.Categories, strict bool) (*evaluate.Evaluator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	mode, err := evaluate.ParseMode(cfg.Evaluation.UnknownLabels)
	if err != nil {
		return nil, err
	}
	if strict {
		mode = evaluate.ModeStrict
	}
	return evaluate.New(categories, mode)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
