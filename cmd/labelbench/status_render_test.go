package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"labelbench/internal/evaluate"
	"labelbench/internal/task"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Accuracy", statusError, "0.250", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Accuracy:", "[ERROR] 0.250")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Model", statusOK, "ready", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestAccuracyKind(t *testing.T) {
	cases := map[float64]statusKind{1: statusOK, 0.8: statusOK, 0.6: statusWarn, 0.2: statusError}
	for accuracy, want := range cases {
		if got := accuracyKind(accuracy); got != want {
			t.Fatalf("accuracyKind(%v) = %v, want %v", accuracy, got, want)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestRenderReportIncludesUnknownColumn(t *testing.T) {
	categories, err := task.NewCategories("Spam", "ham")
	if err != nil {
		t.Fatalf("NewCategories: %v", err)
	}
	evaluator, err := evaluate.New(categories, evaluate.ModeLenient)
	if err != nil {
		t.Fatalf("evaluate.New: %v", err)
	}
	report, err := evaluator.Evaluate([]string{"Spam", "ham", "ham"}, []string{"Spam", "eggs", "ham"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	out := renderReport(report, false)
	for _, want := range []string{"0.667 (2/3 correct)", "Unknown predictions", "weighted avg", "Label", "Precision"} {
		requireContains(t, out, want)
	}
	confusion := renderConfusionTable(report)
	header := ""
	for _, line := range strings.Split(confusion, "\n") {
		if strings.Contains(line, "predicted") {
			header = line
			break
		}
	}
	for _, want := range []string{"true \\ predicted", "Spam", "ham", "(unknown)"} {
		requireContains(t, header, want)
	}
	for _, shouted := range []string{"SPAM", "HAM", "(UNKNOWN)"} {
		if strings.Contains(confusion, shouted) {
			t.Fatalf("expected header labels in their original spelling, got %q", confusion)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  short   text ", 20); got != "short text" {
		t.Fatalf("unexpected truncate result %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Fatalf("unexpected truncate result %q", got)
	}
}
