package task

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"labelbench/internal/services"
)

// Categories is the ordered set of labels a task permits.
type Categories []string

// NewCategories validates labels and returns them as a category set.
// Labels are trimmed; blanks and duplicates are rejected.
func NewCategories(labels ...string) (Categories, error) {
	out := make(Categories, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for i, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, services.Wrap(services.ErrConfiguration, "task", "categories", fmt.Sprintf("category %d is blank", i), nil)
		}
		if _, dup := seen[label]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "task", "categories", fmt.Sprintf("duplicate category %q", label), nil)
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "task", "categories", "at least one category is required", nil)
	}
	return out, nil
}

// Index returns the position of label, or -1.
func (c Categories) Index(label string) int {
	for i, candidate := range c {
		if candidate == label {
			return i
		}
	}
	return -1
}

// Contains reports whether label is an exact member of the set.
func (c Categories) Contains(label string) bool {
	return c.Index(label) >= 0
}

// Canonical maps label to the member it matches under Unicode case folding.
// Exact matches win over folded ones.
func (c Categories) Canonical(label string) (string, bool) {
	if c.Contains(label) {
		return label, true
	}
	folder := cases.Fold()
	want := folder.String(label)
	for _, candidate := range c {
		if folder.String(candidate) == want {
			return candidate, true
		}
	}
	return "", false
}

func (c Categories) String() string {
	return strings.Join(c, ", ")
}
