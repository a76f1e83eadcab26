package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"labelbench/internal/services"
)

// Item is one dataset row.
type Item struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	// Label is the true label, empty when the dataset is unlabeled.
	Label string `json:"label,omitempty"`
}

// Columns names the CSV header fields to read. Matching ignores case and
// surrounding whitespace.
type Columns struct {
	Text  string
	Label string
	// RequireLabel fails when the label column is absent or a row leaves it
	// blank.
	RequireLabel bool
}

// LoadCSV reads the dataset at path.
func LoadCSV(path string, cols Columns) ([]Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "dataset", "open", path, err)
	}
	defer file.Close()
	items, err := ReadCSV(file, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Texts returns the text of every item in order.
func Texts(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Text
	}
	return out
}

// Labels returns the true label of every item in order.
func Labels(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Label
	}
	return out
}

// ReadCSV parses a header row followed by data rows. Row numbers in errors
// are 1-based and count the header.
func ReadCSV(r io.Reader, cols Columns) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, services.Wrap(services.ErrValidation, "dataset", "read csv", "missing header row", nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "dataset", "read csv", "header", err)
	}
	textCol := findColumn(header, cols.Text, "text")
	if textCol < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "dataset", "read csv",
			fmt.Sprintf("text column %q not found in header %q", columnName(cols.Text, "text"), strings.Join(header, ",")), nil)
	}
	labelCol := findColumn(header, cols.Label, "label")
	if labelCol < 0 && cols.RequireLabel {
		return nil, services.Wrap(services.ErrConfiguration, "dataset", "read csv",
			fmt.Sprintf("label column %q not found in header %q", columnName(cols.Label, "label"), strings.Join(header, ",")), nil)
	}

	var items []Item
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "dataset", "read csv", fmt.Sprintf("row %d", row), err)
		}
		if isBlankRecord(record) {
			continue
		}
		text := field(record, textCol)
		if strings.TrimSpace(text) == "" {
			return nil, services.Wrap(services.ErrValidation, "dataset", "read csv", fmt.Sprintf("row %d has empty text", row), nil)
		}
		item := Item{Index: len(items), Text: text}
		if labelCol >= 0 {
			item.Label = strings.TrimSpace(field(record, labelCol))
		}
		if cols.RequireLabel && item.Label == "" {
			return nil, services.Wrap(services.ErrValidation, "dataset", "read csv", fmt.Sprintf("row %d has empty label", row), nil)
		}
		items = append(items, item)
	}
	return items, nil
}

func columnName(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return strings.TrimSpace(name)
}

func findColumn(header []string, name, fallback string) int {
	want := columnName(name, fallback)
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i
		}
	}
	return -1
}

func field(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return record[index]
}

func isBlankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
