package prompt

import (
	"fmt"
	"strings"

	"labelbench/internal/services"
	"labelbench/internal/task"
)

// DefaultSeparator joins batched inputs and their answers.
const DefaultSeparator = "\n"

// Builder assembles conversations for one instruction block.
type Builder struct {
	Instructions string
	// Separator joins batched inputs; empty means DefaultSeparator.
	Separator string
}

// NewBuilder returns a builder for the task's instruction block.
func NewBuilder(t task.Task, separator string) Builder {
	return Builder{Instructions: t.Instructions, Separator: separator}
}

func (b Builder) separator() string {
	if b.Separator == "" {
		return DefaultSeparator
	}
	return b.Separator
}

// Build assembles a conversation for one live input. With no exemplars the
// result has exactly two turns.
func (b Builder) Build(exemplars []task.Exemplar, input string) (Conversation, error) {
	instructions := strings.TrimSpace(b.Instructions)
	if instructions == "" {
		return nil, services.Wrap(services.ErrConfiguration, "prompt", "build", "instructions are required", nil)
	}
	live := Normalize(input)
	if live == "" {
		return nil, services.Wrap(services.ErrValidation, "prompt", "build", "input text is empty", nil)
	}
	return assemble(instructions, exemplars, live)
}

// BuildBatch assembles one conversation carrying every input, joined by the
// separator. The instruction turn states the separator convention and the
// number of answers expected.
func (b Builder) BuildBatch(exemplars []task.Exemplar, inputs []string) (Conversation, error) {
	instructions := strings.TrimSpace(b.Instructions)
	if instructions == "" {
		return nil, services.Wrap(services.ErrConfiguration, "prompt", "build batch", "instructions are required", nil)
	}
	if len(inputs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "prompt", "build batch", "at least one input is required", nil)
	}
	sep := b.separator()
	if strings.TrimSpace(sep) == "" && !strings.Contains(sep, "\n") {
		return nil, services.Wrap(services.ErrConfiguration, "prompt", "build batch", fmt.Sprintf("separator %q is ambiguous with normalized text", sep), nil)
	}
	items := make([]string, len(inputs))
	for i, input := range inputs {
		item := Normalize(input)
		if item == "" {
			return nil, services.Wrap(services.ErrValidation, "prompt", "build batch", fmt.Sprintf("input %d is empty", i), nil)
		}
		if strings.Contains(item, sep) {
			return nil, services.Wrap(services.ErrValidation, "prompt", "build batch", fmt.Sprintf("input %d contains the separator %q", i, sep), nil)
		}
		items[i] = item
	}
	instructions = instructions + "\n\n" + batchConvention(sep, len(items))
	return assemble(instructions, exemplars, strings.Join(items, sep))
}

func batchConvention(sep string, count int) string {
	if sep == "\n" {
		return fmt.Sprintf(
			"You will receive %d texts, one per line. Classify each text independently. "+
				"Answer with exactly %d labels, one per line, in the same order as the texts, and nothing else.",
			count, count)
	}
	return fmt.Sprintf(
		"You will receive %d texts separated by %q. Classify each text independently. "+
			"Answer with exactly %d labels separated by %q, in the same order as the texts, and nothing else.",
		count, sep, count, sep)
}

func assemble(instructions string, exemplars []task.Exemplar, live string) (Conversation, error) {
	conv := make(Conversation, 0, 2+2*len(exemplars))
	conv = append(conv, Turn{Role: RoleInstruction, Content: instructions})
	for i, ex := range exemplars {
		text := Normalize(ex.Text)
		label := strings.TrimSpace(ex.Label)
		if text == "" || label == "" {
			return nil, services.Wrap(services.ErrValidation, "prompt", "build", fmt.Sprintf("exemplar %d needs text and label", i), nil)
		}
		conv = append(conv,
			Turn{Role: RoleExampleInput, Content: text},
			Turn{Role: RoleExampleOutput, Content: label},
		)
	}
	conv = append(conv, Turn{Role: RoleLiveInput, Content: live})
	return conv, nil
}
