package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// Telegram rejects longer messages.
	maxMessageRunes = 4096
)

// Notifier sends report digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	client   *resty.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return NewNotifierWithBase(defaultAPIBase, botToken, chatID)
}

// NewNotifierWithBase points the bot API at another host.
func NewNotifierWithBase(apiBase, botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(apiBase, "/")).
			SetTimeout(5 * time.Second),
	}
}

// PublishReport posts the aggregate counts of a finished report.
func (n *Notifier) PublishReport(ctx context.Context, report domain.Report) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id": n.chatID,
			"text":    Digest(report),
		}).
		Post("/bot" + n.botToken + "/sendMessage")
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram error: %s", resp.Status())
	}

	return nil
}

// Digest is the plain-text message sent for a report.
func Digest(report domain.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PTT %s 情緒分析 %s\n", report.Meta.Board, report.Meta.Scope)
	fmt.Fprintf(&b, "文章數: %d\n", report.Meta.Articles)
	for _, label := range domain.Labels() {
		if n := report.Counts[label]; n > 0 {
			fmt.Fprintf(&b, "%s: %d\n", label, n)
		}
	}
	if report.Path != "" {
		fmt.Fprintf(&b, "報告: %s\n", report.Path)
	}

	text := strings.TrimSuffix(b.String(), "\n")
	if runes := []rune(text); len(runes) > maxMessageRunes {
		text = string(runes[:maxMessageRunes])
	}
	return text
}
