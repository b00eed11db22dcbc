package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const ollamaDateContext = "\n\n這些文章來自 %s，請基於當時的市場環境進行分析。請勿嘗試提供即時股價數據，而是專注於分析文章內容。且使用繁體中文回覆。"

// OllamaProvider calls a local Ollama server's /api/chat.
type OllamaProvider struct {
	baseURL string
	model   string
	http    *resty.Client
}

var _ Provider = (*OllamaProvider)(nil)

// NewOllamaProvider points at baseURL, e.g. http://localhost:11434.
func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		http:    resty.New().SetTimeout(timeout),
	}
}

type ollamaResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

func (p *OllamaProvider) Name() string  { return "ollama" }
func (p *OllamaProvider) Model() string { return p.model }

// Complete sends one non-streaming chat turn. The article date is appended to
// the user message so the model does not reach for live market data.
func (p *OllamaProvider) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if prompt.Date != "" {
		prompt.User += fmt.Sprintf(ollamaDateContext, prompt.Date)
	}

	var out ollamaResponse
	res, err := p.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{Model: p.model, Messages: messages(prompt), Stream: false}).
		ForceContentType("application/json").
		SetResult(&out).
		SetError(&out).
		Post(p.baseURL + "/api/chat")
	if err != nil {
		return "", fmt.Errorf("ollama request (is `ollama serve` running?): %w", err)
	}
	if res.IsError() {
		detail := out.Error
		if detail == "" {
			detail = strings.TrimSpace(string(res.Body()))
		}
		return "", fmt.Errorf("ollama error %s: %s", res.Status(), truncate(detail, 512))
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return "", fmt.Errorf("ollama returned an empty message")
	}
	return out.Message.Content, nil
}
