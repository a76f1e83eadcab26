package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"labelbench/internal/config"
	"labelbench/internal/prompt"
	"labelbench/internal/services"
	"labelbench/internal/services/llm"
	"labelbench/internal/task"
)

func loadTask(path string) (task.Task, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return task.Task{}, services.Wrap(services.ErrConfiguration, "cli", "load task", "--task is required", nil)
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return task.Task{}, err
	}
	return task.Load(expanded)
}

// readInputs returns args, or the non-blank lines of stdin when args is empty.
func readInputs(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	return readLines(cmd.InOrStdin())
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(lines) == 0 {
		return nil, services.Wrap(services.ErrValidation, "cli", "read input", "no text given on the command line or stdin", nil)
	}
	return lines, nil
}

// dryRunBackend answers label for every input without contacting a server.
func dryRunBackend(label, separator string, batch bool) llm.Backend {
	return llm.BackendFunc(func(ctx context.Context, conv prompt.Conversation, _ llm.Params) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !batch {
			return label, nil
		}
		count := len(strings.Split(conv.LiveInput(), separator))
		answers := make([]string, count)
		for i := range answers {
			answers[i] = label
		}
		return strings.Join(answers, separator), nil
	})
}

func truncate(s string, limit int) string {
	s = prompt.Normalize(s)
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}

func formatRatio(value float64) string {
	return fmt.Sprintf("%.3f", value)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
