package llm

import "context"

// Prompt is one request to a language model.
type Prompt struct {
	System string
	User   string
	// Date is the scope the articles were posted in; some providers add it as context.
	Date string
}

// Provider is a chat-completion backend.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, prompt Prompt) (string, error)
}
