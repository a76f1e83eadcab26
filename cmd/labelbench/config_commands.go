package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"labelbench/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set llm.api_key (or export LABELBENCH_API_KEY) before classifying against a live backend.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderStatusLine("Config path", statusInfo, ctx.configPath, colorize))
			if !ctx.configSeen {
				fmt.Fprintln(out, renderStatusLine("Config file", statusWarn, "not found; defaults were used", colorize))
			}

			counter, err := ctx.newCounter("", "")
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Tokenizer", statusError, err.Error(), colorize))
				return err
			}
			tokenizer := counter.Encoding()
			if cfg.Tokenizer.Model != "" {
				tokenizer = cfg.Tokenizer.Model
			}
			fmt.Fprintln(out, renderStatusLine("Tokenizer", statusOK, tokenizer, colorize))

			mode := cfg.Classify.Mode
			if cfg.Batched() {
				mode += ", batch size " + strconv.Itoa(cfg.Classify.BatchSize)
			}
			fmt.Fprintln(out, renderStatusLine("Classify mode", statusInfo, mode, colorize))

			if err := cfg.RequireAPIKey(); err != nil {
				fmt.Fprintln(out, renderStatusLine("API key", statusWarn, "missing; only --dry-run will work", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("API key", statusOK, "set", colorize))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
