package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OpenAIProvider talks to OpenAI-compatible chat completion APIs such as xAI.
type OpenAIProvider struct {
	name     string
	endpoint string
	model    string
	apiKey   string
	http     *resty.Client
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds a provider; name is what reports show (openai, xai).
func NewOpenAIProvider(name, endpoint, model, apiKey string, timeout time.Duration) *OpenAIProvider {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &OpenAIProvider{
		name:     name,
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		http:     client,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatCompletion struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Name() string  { return p.name }
func (p *OpenAIProvider) Model() string { return p.model }

// Complete posts the prompt as a system and a user message.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if p.apiKey == "" || p.endpoint == "" || p.model == "" {
		return "", fmt.Errorf("%s client misconfigured", p.name)
	}

	var out chatCompletion
	res, err := p.http.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetBody(chatRequest{Model: p.model, Messages: messages(prompt)}).
		ForceContentType("application/json").
		SetResult(&out).
		SetError(&out).
		Post(p.endpoint)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", p.name, err)
	}
	if res.IsError() {
		detail := strings.TrimSpace(string(res.Body()))
		if out.Error != nil && out.Error.Message != "" {
			detail = out.Error.Message
		}
		return "", fmt.Errorf("%s error %s: %s", p.name, res.Status(), truncate(detail, 512))
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}
	return out.Choices[0].Message.Content, nil
}

func messages(prompt Prompt) []chatMessage {
	var msgs []chatMessage
	if system := strings.TrimSpace(prompt.System); system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	return append(msgs, chatMessage{Role: "user", Content: prompt.User})
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
