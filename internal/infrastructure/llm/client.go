package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PTTSentiment/internal/config"
	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/logging"
	"PTTSentiment/internal/ports"
)

// Client classifies article batches. The backing provider is chosen once at
// construction; remote failures are answered by the local simulation.
type Client struct {
	provider Provider
	fallback Provider
	// reason is set when the provider itself is the simulation.
	reason  string
	prompts *PromptBuilder
	cache   *ExchangeCache
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

var _ ports.Classifier = (*Client)(nil)

// NewClient selects the provider from cfg. Missing credentials select the
// simulation. The only error is an unreadable prompt file.
func NewClient(cfg config.AnalysisConfig, board string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	prompts, err := NewPromptBuilder(cfg.PromptFile, cfg.SystemPrompt, board)
	if err != nil {
		return nil, err
	}

	c := &Client{
		fallback: Simulation{},
		prompts:  prompts,
		cache:    NewExchangeCache(cfg.CacheDir),
		timeout:  cfg.Timeout,
		now:      time.Now,
		logger:   logger,
	}

	switch {
	case cfg.Provider == config.ProviderSimulation:
		c.provider = Simulation{}
		c.reason = "simulation selected in configuration"
	case !cfg.HasCredential():
		c.provider = Simulation{}
		c.reason = fmt.Sprintf("no credential configured for provider %s", cfg.Provider)
	case cfg.Provider == config.ProviderOllama:
		c.provider = NewOllamaProvider(cfg.Endpoint, cfg.Model, cfg.Timeout)
	case cfg.Provider == config.ProviderAnthropic:
		c.provider = NewAnthropicProvider(cfg.APIKey, cfg.Model, cfg.Endpoint, cfg.Timeout)
	case cfg.Provider == config.ProviderOpenAI || cfg.Provider == config.ProviderXAI:
		c.provider = NewOpenAIProvider(cfg.Provider, cfg.Endpoint, cfg.Model, cfg.APIKey, cfg.Timeout)
	default:
		c.provider = Simulation{}
		c.reason = fmt.Sprintf("unknown provider %q", cfg.Provider)
	}

	if c.reason != "" {
		logger.Warn("sentiment service unavailable, using simulation", "reason", c.reason)
	} else {
		logger.Info("sentiment provider selected", "provider", c.provider.Name(), "model", c.provider.Model())
	}
	return c, nil
}

// Simulated reports whether every call is answered locally.
func (c *Client) Simulated() bool {
	return c.reason != ""
}

// Classify never fails: service errors and timeouts produce a simulated result
// carrying the reason.
func (c *Client) Classify(ctx context.Context, articles []domain.Article, opts ports.ClassifyOptions) domain.SentimentResult {
	prompt := c.prompts.Build(articles, opts.Scope, opts.PreviousSummary)
	subjects := subjectsOf(articles)

	if c.reason != "" {
		return c.simulate(ctx, prompt, subjects, c.reason)
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := c.now()
	text, err := c.provider.Complete(callCtx, prompt)
	c.save(prompt, c.provider, text, err)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
		c.logger.Warn("sentiment call failed, falling back to simulation",
			"provider", c.provider.Name(), "articles", len(articles), "error", err)
		return c.simulate(ctx, prompt, subjects, err.Error())
	}

	parsed := ParseResponse(text)
	c.logger.Info("sentiment classified",
		"provider", c.provider.Name(),
		"articles", len(articles),
		"label", parsed.Label,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return domain.SentimentResult{
		Label:     parsed.Label,
		Rationale: parsed.Rationale,
		KeyPoints: parsed.KeyPoints,
		Sectors:   parsed.Sectors,
		Raw:       strings.TrimSpace(text),
		Provider:  c.provider.Name(),
		Model:     c.provider.Model(),
		Subjects:  subjects,
	}
}

func (c *Client) simulate(ctx context.Context, prompt Prompt, subjects []domain.Subject, reason string) domain.SentimentResult {
	text, _ := c.fallback.Complete(ctx, prompt)
	parsed := ParseResponse(text)
	return domain.SentimentResult{
		Label:          domain.SentimentSimulated,
		Rationale:      parsed.Rationale,
		KeyPoints:      parsed.KeyPoints,
		Sectors:        parsed.Sectors,
		Raw:            text,
		Provider:       c.fallback.Name(),
		Model:          c.fallback.Model(),
		Simulated:      true,
		FallbackReason: reason,
		Subjects:       subjects,
	}
}

func (c *Client) save(prompt Prompt, provider Provider, response string, callErr error) {
	if c.cache == nil {
		return
	}
	exchange := Exchange{
		Timestamp: c.now(),
		Provider:  provider.Name(),
		Model:     provider.Model(),
		Scope:     prompt.Date,
		System:    prompt.System,
		Prompt:    prompt.User,
		Response:  response,
	}
	if callErr != nil {
		exchange.Error = callErr.Error()
		if errors.Is(callErr, context.DeadlineExceeded) {
			exchange.Error = "timeout: " + exchange.Error
		}
	}
	path, err := c.cache.Save(exchange)
	if err != nil {
		c.logger.Warn("cache llm exchange", "error", err)
		return
	}
	c.logger.Debug("cached llm exchange", "path", path)
}

func subjectsOf(articles []domain.Article) []domain.Subject {
	subjects := make([]domain.Subject, 0, len(articles))
	for _, a := range articles {
		subjects = append(subjects, domain.Subject{Title: a.Title, URL: a.URL, Date: a.Date})
	}
	return subjects
}
