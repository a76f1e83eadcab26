package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"labelbench/internal/config"
	"labelbench/internal/dataset"
	"labelbench/internal/evaluate"
	"labelbench/internal/runner"
	"labelbench/internal/services"
	"labelbench/internal/task"
)

type runSummary struct {
	RunID       string           `json:"run_id"`
	Mode        string           `json:"mode"`
	Items       int              `json:"items"`
	Invalid     int              `json:"invalid"`
	ElapsedMS   int64            `json:"elapsed_ms"`
	Predictions string           `json:"predictions,omitempty"`
	Scoring     string           `json:"scoring,omitempty"`
	Report      *evaluate.Report `json:"report,omitempty"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var taskPath string
	var dataPath string
	var outPath string
	var mode string
	var workers int
	var batchSize int
	var dryRun bool
	var zeroShot bool
	var strict bool
	var noEval bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify a CSV dataset and score the predictions",
		Long: "Classify every row of a CSV dataset, optionally write the predictions as\n" +
			"JSON lines, and print accuracy, per-label metrics and the confusion matrix\n" +
			"when every row carries a true label.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			t, err := loadTask(taskPath)
			if err != nil {
				return err
			}

			batch := cfg.Batched()
			if mode = strings.ToLower(strings.TrimSpace(mode)); mode != "" {
				switch mode {
				case config.ModeSingle:
					batch = false
				case config.ModeBatch:
					batch = true
				default:
					return services.Wrap(services.ErrValidation, "cli", "run", fmt.Sprintf("unknown mode %q (want single or batch)", mode), nil)
				}
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Classify.Workers
			}
			if !cmd.Flags().Changed("batch-size") {
				batchSize = cfg.Classify.BatchSize
			}

			items, err := loadDataset(dataPath, cfg.Dataset)
			if err != nil {
				return err
			}
			client, err := ctx.newClient(cmd, t, dryRun, batch)
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}
			var exemplars []task.Exemplar
			if !zeroShot {
				exemplars = t.Exemplars
			}
			r, err := runner.New(client, runner.Options{
				Workers:   workers,
				Batch:     batch,
				BatchSize: batchSize,
				Exemplars: exemplars,
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			output, err := r.Run(cmd.Context(), items)
			if err != nil {
				return err
			}
			preds := runner.Predictions(items, output)

			summary := runSummary{
				RunID:     output.RunID,
				Mode:      config.ModeSingle,
				Items:     len(items),
				Invalid:   output.Invalid,
				ElapsedMS: output.Elapsed.Milliseconds(),
			}
			if batch {
				summary.Mode = config.ModeBatch
			}
			if outPath = strings.TrimSpace(outPath); outPath != "" {
				expanded, err := config.ExpandPath(outPath)
				if err != nil {
					return err
				}
				if err := dataset.WritePredictions(expanded, preds); err != nil {
					return err
				}
				summary.Predictions = expanded
			}

			if !noEval && allLabeled(items) {
				evaluator, err := ctx.newEvaluator(t.Categories, strict)
				if err != nil {
					return err
				}
				records, err := dataset.Records(preds)
				if err != nil {
					return err
				}
				report, err := evaluator.EvaluateRecords(records)
				if err != nil {
					return err
				}
				summary.Report = &report
				summary.Scoring = string(evaluator.Mode())
			}

			if jsonOutput {
				return writeJSON(cmd, summary)
			}
			writeRunSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&taskPath, "task", "t", "", "Task definition file (required)")
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "CSV dataset (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write predictions as JSON lines to this file")
	cmd.Flags().StringVar(&mode, "mode", "", "Override classify.mode (single or batch)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Override classify.workers")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Override classify.batch_size")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Answer with the first category instead of calling the backend")
	cmd.Flags().BoolVar(&zeroShot, "zero-shot", false, "Ignore the task's exemplars")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject labels outside the category set while scoring")
	cmd.Flags().BoolVar(&noEval, "no-eval", false, "Skip scoring even when the dataset is labeled")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func loadDataset(path string, columns config.Dataset) ([]dataset.Item, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "load dataset", "--data is required", nil)
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	return dataset.LoadCSV(expanded, dataset.Columns{
		Text:  columns.TextColumn,
		Label: columns.LabelColumn,
	})
}

func allLabeled(items []dataset.Item) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if strings.TrimSpace(item.Label) == "" {
			return false
		}
	}
	return true
}

func writeRunSummary(cmd *cobra.Command, summary runSummary) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Run ID", statusInfo, summary.RunID, colorize))
	fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, summary.Mode, colorize))
	fmt.Fprintln(out, renderStatusLine("Items", statusInfo, strconv.Itoa(summary.Items), colorize))
	invalidKind := statusOK
	if summary.Invalid > 0 {
		invalidKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Invalid answers", invalidKind, strconv.Itoa(summary.Invalid), colorize))
	fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo, fmt.Sprintf("%dms", summary.ElapsedMS), colorize))
	if summary.Predictions != "" {
		fmt.Fprintln(out, renderStatusLine("Predictions", statusInfo, summary.Predictions, colorize))
	}
	if summary.Report == nil {
		return
	}
	fmt.Fprintln(out, renderStatusLine("Unknown labels", statusInfo, summary.Scoring, colorize))
	fmt.Fprintln(out)
	fmt.Fprint(out, renderReport(*summary.Report, colorize))
}
