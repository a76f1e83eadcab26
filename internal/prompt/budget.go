package prompt

import (
	"fmt"

	"labelbench/internal/services"
	"labelbench/internal/task"
)

// Counter counts tokens for a string.
type Counter interface {
	Count(s string) int
}

const (
	tokensPerMessage = 3
	tokensPerReply   = 3
)

// CountConversation estimates the prompt tokens a chat request will consume:
// message contents and role names plus the per-message framing and the reply
// primer added by chat-completion APIs.
func CountConversation(counter Counter, conv Conversation) int {
	if len(conv) == 0 {
		return 0
	}
	total := tokensPerReply
	for _, turn := range conv {
		total += tokensPerMessage
		total += counter.Count(turn.Role.ChatRole())
		total += counter.Count(turn.Content)
	}
	return total
}

// Fit builds a single-input conversation, dropping exemplars from the end
// until it fits within maxTokens. maxTokens <= 0 disables the budget.
func (b Builder) Fit(counter Counter, maxTokens int, exemplars []task.Exemplar, input string) (Conversation, error) {
	return fit(counter, maxTokens, exemplars, func(ex []task.Exemplar) (Conversation, error) {
		return b.Build(ex, input)
	})
}

// FitBatch is Fit for BuildBatch.
func (b Builder) FitBatch(counter Counter, maxTokens int, exemplars []task.Exemplar, inputs []string) (Conversation, error) {
	return fit(counter, maxTokens, exemplars, func(ex []task.Exemplar) (Conversation, error) {
		return b.BuildBatch(ex, inputs)
	})
}

func fit(counter Counter, maxTokens int, exemplars []task.Exemplar, build func([]task.Exemplar) (Conversation, error)) (Conversation, error) {
	conv, err := build(exemplars)
	if err != nil {
		return nil, err
	}
	if maxTokens <= 0 || counter == nil {
		return conv, nil
	}
	used := CountConversation(counter, conv)
	if used <= maxTokens {
		return conv, nil
	}
	// Exemplar pairs sit between the instruction and the live turn.
	for keep := len(exemplars) - 1; keep >= 0; keep-- {
		trimmed := make(Conversation, 0, 2+2*keep)
		trimmed = append(trimmed, conv[:1+2*keep]...)
		trimmed = append(trimmed, conv[len(conv)-1])
		used = CountConversation(counter, trimmed)
		if used <= maxTokens {
			return trimmed, nil
		}
	}
	return nil, services.Wrap(services.ErrBudgetExceeded, "prompt", "fit",
		fmt.Sprintf("zero-shot conversation needs %d tokens, budget is %d", used, maxTokens), nil)
}
