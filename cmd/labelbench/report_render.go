package main

import (
	"fmt"
	"strconv"
	"strings"

	"labelbench/internal/evaluate"
)

func renderReport(report evaluate.Report, colorize bool) string {
	var b strings.Builder
	for _, line := range renderSectionHeader("Evaluation", colorize) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	accuracy := fmt.Sprintf("%s (%d/%d correct)", formatRatio(report.Accuracy), report.Correct, report.Total)
	b.WriteString(renderStatusLine("Accuracy", accuracyKind(report.Accuracy), accuracy, colorize))
	b.WriteByte('\n')
	if report.Unknown > 0 {
		b.WriteString(renderStatusLine("Unknown predictions", statusWarn, strconv.Itoa(report.Unknown), colorize))
		b.WriteByte('\n')
	}
	if report.UnknownTrue > 0 {
		b.WriteString(renderStatusLine("Unknown true labels", statusWarn, strconv.Itoa(report.UnknownTrue), colorize))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(renderMetricsTable(report))
	b.WriteString("\n\n")
	b.WriteString(renderConfusionTable(report))
	b.WriteByte('\n')
	return b.String()
}

func renderMetricsTable(report evaluate.Report) string {
	rows := make([][]string, 0, len(report.Classes))
	for _, class := range report.Classes {
		rows = append(rows, []string{
			class.Label,
			formatRatio(class.Precision),
			formatRatio(class.Recall),
			formatRatio(class.F1),
			strconv.Itoa(class.Support),
		})
	}
	support := 0
	for _, class := range report.Classes {
		support += class.Support
	}
	footer := [][]string{
		{"macro avg", formatRatio(report.Macro.Precision), formatRatio(report.Macro.Recall), formatRatio(report.Macro.F1), strconv.Itoa(support)},
		{"weighted avg", formatRatio(report.Weighted.Precision), formatRatio(report.Weighted.Recall), formatRatio(report.Weighted.F1), strconv.Itoa(support)},
	}
	return renderTable(tableSpec{
		headers: []string{"Label", "Precision", "Recall", "F1", "Support"},
		rows:    rows,
		footer:  footer,
		aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	})
}

func renderConfusionTable(report evaluate.Report) string {
	labels := report.Confusion.Labels
	headers := make([]string, 0, len(labels)+2)
	headers = append(headers, "true \\ predicted")
	headers = append(headers, labels...)
	headers = append(headers, "(unknown)")

	aligns := make([]columnAlignment, len(headers))
	for i := 1; i < len(aligns); i++ {
		aligns[i] = alignRight
	}
	rows := make([][]string, 0, len(labels))
	for i, label := range labels {
		row := []string{label}
		for _, count := range report.Confusion.Matrix[i] {
			row = append(row, strconv.Itoa(count))
		}
		rows = append(rows, row)
	}
	return renderTable(tableSpec{title: "Confusion matrix", headers: headers, rows: rows, aligns: aligns})
}
