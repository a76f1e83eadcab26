package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"labelbench/internal/prompt"
)

type tokenCount struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

type tokensOutput struct {
	Encoding string       `json:"encoding"`
	Prompt   bool         `json:"prompt"`
	Counts   []tokenCount `json:"counts"`
	Total    int          `json:"total"`
}

func newTokensCommand(ctx *commandContext) *cobra.Command {
	var model string
	var encoding string
	var taskPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tokens [text...]",
		Short: "Count tokens in texts or in the prompts built for them",
		Long: "Count tokens for each argument, or for each non-blank stdin line when no\n" +
			"arguments are given. With --task the count covers the full prompt that\n" +
			"would be sent for the text, including instructions and exemplars.",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readInputs(cmd, args)
			if err != nil {
				return err
			}
			counter, err := ctx.newCounter(model, encoding)
			if err != nil {
				return err
			}

			out := tokensOutput{Encoding: counter.Encoding(), Prompt: taskPath != ""}
			if taskPath == "" {
				for i, n := range counter.CountAll(inputs) {
					out.Counts = append(out.Counts, tokenCount{Index: i, Text: inputs[i], Tokens: n})
					out.Total += n
				}
			} else {
				t, err := loadTask(taskPath)
				if err != nil {
					return err
				}
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				builder := prompt.NewBuilder(t, cfg.Classify.Separator)
				for i, input := range inputs {
					conv, err := builder.Build(t.Exemplars, input)
					if err != nil {
						return err
					}
					n := prompt.CountConversation(counter, conv)
					out.Counts = append(out.Counts, tokenCount{Index: i, Text: input, Tokens: n})
					out.Total += n
				}
			}

			if jsonOutput {
				return writeJSON(cmd, out)
			}
			rows := make([][]string, 0, len(out.Counts))
			for _, c := range out.Counts {
				rows = append(rows, []string{strconv.Itoa(c.Index + 1), truncate(c.Text, 60), strconv.Itoa(c.Tokens)})
			}
			header := "Tokens"
			if out.Prompt {
				header = "Prompt tokens"
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
				headers: []string{"#", "Text", header},
				rows:    rows,
				footer:  [][]string{{"", "total", strconv.Itoa(out.Total)}},
				aligns:  []columnAlignment{alignRight, alignLeft, alignRight},
			}))
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Tokenizer model (overrides tokenizer settings)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Tokenizer encoding name (overrides tokenizer settings)")
	cmd.Flags().StringVarP(&taskPath, "task", "t", "", "Count the full classification prompt for this task file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("model", "encoding")
	return cmd
}
