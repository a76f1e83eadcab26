package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"labelbench/internal/config"
	"labelbench/internal/dataset"
	"labelbench/internal/services"
	"labelbench/internal/task"
)

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	var taskPath string
	var categories []string
	var predictionsPath string
	var strict bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a predictions file written by run --out",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := resolveCategories(taskPath, categories)
			if err != nil {
				return err
			}
			path := strings.TrimSpace(predictionsPath)
			if path == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "evaluate", "--predictions is required", nil)
			}
			expanded, err := config.ExpandPath(path)
			if err != nil {
				return err
			}
			preds, err := dataset.ReadPredictions(expanded)
			if err != nil {
				return err
			}
			records, err := dataset.Records(preds)
			if err != nil {
				return err
			}
			evaluator, err := ctx.newEvaluator(set, strict)
			if err != nil {
				return err
			}
			report, err := evaluator.EvaluateRecords(records)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStatusLine("Unknown labels", statusInfo, string(evaluator.Mode()), colorize))
			fmt.Fprint(out, renderReport(report, colorize))
			return nil
		},
	}

	cmd.Flags().StringVarP(&taskPath, "task", "t", "", "Task definition file supplying the categories")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Comma-separated category set (instead of --task)")
	cmd.Flags().StringVarP(&predictionsPath, "predictions", "p", "", "Predictions file (required)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject labels outside the category set")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("task", "categories")
	return cmd
}

func resolveCategories(taskPath string, categories []string) (task.Categories, error) {
	if strings.TrimSpace(taskPath) != "" {
		t, err := loadTask(taskPath)
		if err != nil {
			return nil, err
		}
		return t.Categories, nil
	}
	if len(categories) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "evaluate", "--task or --categories is required", nil)
	}
	return task.NewCategories(categories...)
}
