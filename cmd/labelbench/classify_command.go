package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"labelbench/internal/classify"
	"labelbench/internal/task"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var taskPath string
	var batch bool
	var dryRun bool
	var zeroShot bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify texts given as arguments or stdin lines",
		Long: "Classify each argument, or each non-blank stdin line when no arguments are\n" +
			"given. With --batch all texts are sent in one request.",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTask(taskPath)
			if err != nil {
				return err
			}
			inputs, err := readInputs(cmd, args)
			if err != nil {
				return err
			}
			client, err := ctx.newClient(cmd, t, dryRun, batch)
			if err != nil {
				return err
			}
			var exemplars []task.Exemplar
			if !zeroShot {
				exemplars = t.Exemplars
			}

			var results []classify.Result
			if batch {
				results, err = client.ClassifyBatch(cmd.Context(), exemplars, inputs)
				if err != nil {
					return err
				}
			} else {
				for i, input := range inputs {
					result, err := client.Classify(cmd.Context(), exemplars, input)
					if err != nil {
						return err
					}
					result.Index = i
					results = append(results, result)
				}
			}

			if jsonOutput {
				return writeJSON(cmd, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				label := r.Label
				if !r.Valid {
					label = r.Raw
				}
				rows = append(rows, []string{strconv.Itoa(r.Index + 1), truncate(r.Input, 60), label, yesNo(r.Valid)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
				headers: []string{"#", "Text", "Label", "Valid"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight},
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&taskPath, "task", "t", "", "Task definition file (required)")
	cmd.Flags().BoolVar(&batch, "batch", false, "Send all texts in a single request")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Answer with the first category instead of calling the backend")
	cmd.Flags().BoolVar(&zeroShot, "zero-shot", false, "Ignore the task's exemplars")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
