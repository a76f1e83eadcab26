package task

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"labelbench/internal/services"
)

// Exemplar is a labeled example shown to the model before the live input.
type Exemplar struct {
	Text  string `toml:"text" json:"text"`
	Label string `toml:"label" json:"label"`
}

// Task bundles the instruction block with its category set and exemplars.
type Task struct {
	Name         string     `toml:"name"`
	Instructions string     `toml:"instructions"`
	Categories   Categories `toml:"categories"`
	Exemplars    []Exemplar `toml:"exemplars"`
}

// New validates and returns a task.
func New(name, instructions string, categories []string, exemplars ...Exemplar) (Task, error) {
	t := Task{
		Name:         name,
		Instructions: instructions,
		Categories:   categories,
		Exemplars:    exemplars,
	}
	if err := t.normalize(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Load reads a task definition from a TOML file.
func Load(path string) (Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Task{}, services.Wrap(services.ErrConfiguration, "task", "load", fmt.Sprintf("task file %s not found", path), nil)
		}
		return Task{}, fmt.Errorf("read task file: %w", err)
	}
	var t Task
	if err := toml.Unmarshal(data, &t); err != nil {
		return Task{}, services.Wrap(services.ErrConfiguration, "task", "parse", path, err)
	}
	if strings.TrimSpace(t.Name) == "" {
		t.Name = strings.TrimSuffix(baseName(path), ".toml")
	}
	if err := t.normalize(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Validate checks the task invariants. Categories must already be in their
// trimmed form, since labels are matched exactly.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Instructions) == "" {
		return services.Wrap(services.ErrConfiguration, "task", "validate", "instructions are required", nil)
	}
	categories, err := NewCategories(t.Categories...)
	if err != nil {
		return err
	}
	for i, label := range t.Categories {
		if label != categories[i] {
			return services.Wrap(services.ErrConfiguration, "task", "validate",
				fmt.Sprintf("category %q has surrounding whitespace (build tasks with task.New or task.Load)", label), nil)
		}
	}
	return ValidateExemplars(categories, t.Exemplars)
}

// ValidateExemplars checks that every exemplar carries text and a known label.
func ValidateExemplars(categories Categories, exemplars []Exemplar) error {
	for i, ex := range exemplars {
		if strings.TrimSpace(ex.Text) == "" {
			return services.Wrap(services.ErrConfiguration, "task", "exemplars", fmt.Sprintf("exemplar %d has no text", i), nil)
		}
		if !categories.Contains(ex.Label) {
			return services.Wrap(services.ErrConfiguration, "task", "exemplars",
				fmt.Sprintf("exemplar %d label %q is not one of [%s]", i, ex.Label, categories), nil)
		}
	}
	return nil
}

func (t *Task) normalize() error {
	t.Name = strings.TrimSpace(t.Name)
	t.Instructions = strings.TrimSpace(t.Instructions)
	categories, err := NewCategories(t.Categories...)
	if err != nil {
		return err
	}
	t.Categories = categories
	for i := range t.Exemplars {
		t.Exemplars[i].Label = strings.TrimSpace(t.Exemplars[i].Label)
	}
	return t.Validate()
}

func baseName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
