package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured backend accepts the API key and model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}
			backend := ctx.chatBackend()
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			settings := cfg.GetLLM()
			fmt.Fprintln(out, renderStatusLine("Endpoint", statusInfo, settings.BaseURL, colorize))
			if err := backend.HealthCheck(cmd.Context()); err != nil {
				fmt.Fprintln(out, renderStatusLine("Model", statusError, backend.Model(), colorize))
				return err
			}
			fmt.Fprintln(out, renderStatusLine("Model", statusOK, backend.Model(), colorize))
			return nil
		},
	}
}
