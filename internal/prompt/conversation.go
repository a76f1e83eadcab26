package prompt

import (
	"fmt"

	"labelbench/internal/services"
)

// Role tags a conversation turn.
type Role string

const (
	RoleInstruction   Role = "instruction"
	RoleExampleInput  Role = "example_input"
	RoleExampleOutput Role = "example_output"
	RoleLiveInput     Role = "live_input"
)

// ChatRole maps the turn role onto the chat-completions role vocabulary.
func (r Role) ChatRole() string {
	switch r {
	case RoleInstruction:
		return "system"
	case RoleExampleOutput:
		return "assistant"
	default:
		return "user"
	}
}

// Turn is one role-tagged message.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is the ordered list of turns submitted in one request.
type Conversation []Turn

// Instruction returns the content of the leading instruction turn.
func (c Conversation) Instruction() string {
	if len(c) == 0 || c[0].Role != RoleInstruction {
		return ""
	}
	return c[0].Content
}

// LiveInput returns the content of the trailing live input turn.
func (c Conversation) LiveInput() string {
	if len(c) == 0 || c[len(c)-1].Role != RoleLiveInput {
		return ""
	}
	return c[len(c)-1].Content
}

// ExemplarCount reports how many input/output pairs the conversation holds.
func (c Conversation) ExemplarCount() int {
	if len(c) < 2 {
		return 0
	}
	return (len(c) - 2) / 2
}

// Validate checks the turn ordering invariant.
func (c Conversation) Validate() error {
	if len(c) < 2 {
		return invalid("conversation needs an instruction and a live input, got %d turns", len(c))
	}
	if c[0].Role != RoleInstruction {
		return invalid("turn 0 is %s, want %s", c[0].Role, RoleInstruction)
	}
	last := len(c) - 1
	if c[last].Role != RoleLiveInput {
		return invalid("turn %d is %s, want %s", last, c[last].Role, RoleLiveInput)
	}
	middle := c[1:last]
	if len(middle)%2 != 0 {
		return invalid("exemplar turns must come in input/output pairs, got %d", len(middle))
	}
	for i, turn := range middle {
		want := RoleExampleInput
		if i%2 == 1 {
			want = RoleExampleOutput
		}
		if turn.Role != want {
			return invalid("turn %d is %s, want %s", i+1, turn.Role, want)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "prompt", "conversation", fmt.Sprintf(format, args...), nil)
}
