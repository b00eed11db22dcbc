package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"PTTSentiment/internal/config"
	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/logging"
	"PTTSentiment/internal/ports"
)

// over18Cookie passes PTT's age-verification interstitial.
var over18Cookie = &http.Cookie{Name: "over18", Value: "1", Path: "/"}

// Fetcher downloads forum pages with the identity the source site expects.
type Fetcher struct {
	client *resty.Client
	logger *slog.Logger
}

var _ ports.Fetcher = (*Fetcher)(nil)

// New builds a resty client from configuration. Retries apply to transport
// errors and 5xx responses only and never wait long.
func New(cfg config.FetcherConfig, logger *slog.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetCookie(over18Cookie)
	client.SetHeader("User-Agent", cfg.UserAgent)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.Retries > 0 {
		client.SetRetryCount(cfg.Retries)
		client.SetRetryWaitTime(200 * time.Millisecond)
		client.SetRetryMaxWaitTime(time.Second)
		client.AddRetryCondition(func(res *resty.Response, err error) bool {
			return err != nil || res.StatusCode() >= http.StatusInternalServerError
		})
	}
	if cfg.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	return &Fetcher{client: client, logger: logger}, nil
}

// Fetch returns the raw HTML at pageURL. Every failure wraps domain.ErrNetwork.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if _, err := url.ParseRequestURI(pageURL); err != nil {
		return "", fmt.Errorf("%w: invalid url %q: %v", domain.ErrNetwork, pageURL, err)
	}

	f.logger.Debug("fetch page", "url", pageURL)

	res, err := f.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %v", domain.ErrNetwork, pageURL, err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: get %s: %s", domain.ErrNetwork, pageURL, res.Status())
	}

	return res.String(), nil
}
