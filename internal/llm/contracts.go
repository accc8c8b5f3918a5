package llm

import (
	"context"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// Message is one chat turn sent to a completion endpoint.
type Message struct {
	Role    constants.MessageRole `json:"role"`
	Content string                `json:"content"`
}

// Completer is the LLM port: one blocking call returning the full completion text.
// Callers apply their own timeout through ctx.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, messages []Message) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// UserPrompt wraps a single user prompt as a message list.
func UserPrompt(prompt string) []Message {
	return []Message{{Role: constants.RoleUser, Content: prompt}}
}
