package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Taipei"
	configPathEnv   = "PTT_SENTIMENT_CONFIG"
	logLevelEnv     = "PTT_SENTIMENT_LOG_LEVEL"
	xaiAPIKeyEnv    = "XAI_API_KEY"
	openAIAPIKeyEnv = "OPENAI_API_KEY"
	anthropicKeyEnv = "ANTHROPIC_API_KEY"
	ollamaURLEnv    = "OLLAMA_URL"
	ledgerPathEnv   = "PTT_SENTIMENT_LEDGER"

	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Provider names accepted by analysis.provider.
const (
	ProviderOpenAI     = "openai"
	ProviderXAI        = "xai"
	ProviderOllama     = "ollama"
	ProviderAnthropic  = "anthropic"
	ProviderSimulation = "simulation"
)

// Analysis modes.
const (
	ModeBatch   = "batch"
	ModeArticle = "article"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Timezone      string             `yaml:"timezone"`
	Board         BoardConfig        `yaml:"board"`
	Fetcher       FetcherConfig      `yaml:"fetcher"`
	Scrape        ScrapeConfig       `yaml:"scrape"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Ledger        LedgerConfig       `yaml:"ledger"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// BoardConfig names the forum board and the scanner strategy that walks it.
type BoardConfig struct {
	Name      string `yaml:"name"`
	Scanner   string `yaml:"scanner"`
	BaseURL   string `yaml:"baseUrl"`
	IndexPath string `yaml:"indexPath"`
}

// IndexURL joins the base URL with the newest index page path.
func (b BoardConfig) IndexURL() string {
	return strings.TrimSuffix(b.BaseURL, "/") + "/" + strings.TrimPrefix(b.IndexPath, "/")
}

// FetcherConfig tunes the HTTP client used against the forum.
type FetcherConfig struct {
	UserAgent        string        `yaml:"userAgent"`
	Timeout          time.Duration `yaml:"timeout"`
	Retries          int           `yaml:"retries"`
	CloudflareBypass bool          `yaml:"cloudflareBypass"`
}

// ScrapeConfig bounds the pagination walk.
type ScrapeConfig struct {
	MaxPages               int           `yaml:"maxPages"`
	MaxConsecutiveFailures int           `yaml:"maxConsecutiveFailures"`
	PageDelay              time.Duration `yaml:"pageDelay"`
	OutputDir              string        `yaml:"outputDir"`
	ContentMaxLength       int           `yaml:"contentMaxLength"`
}

// AnalysisConfig defines how to contact the sentiment service.
type AnalysisConfig struct {
	Provider              string        `yaml:"provider"`
	Endpoint              string        `yaml:"endpoint"`
	Model                 string        `yaml:"model"`
	APIKey                string        `yaml:"apiKey"`
	SystemPrompt          string        `yaml:"systemPrompt"`
	PromptFile            string        `yaml:"promptFile"`
	OutputDir             string        `yaml:"outputDir"`
	Mode                  string        `yaml:"mode"`
	BatchSize             int           `yaml:"batchSize"`
	Timeout               time.Duration `yaml:"timeout"`
	IncludePreviousReport bool          `yaml:"includePreviousReport"`
	CacheDir              string        `yaml:"cacheDir"`
}

// HasCredential reports whether the configured provider can be reached at all.
// Ollama runs locally and needs an endpoint instead of a key.
func (a AnalysisConfig) HasCredential() bool {
	switch a.Provider {
	case ProviderSimulation:
		return false
	case ProviderOllama:
		return strings.TrimSpace(a.Endpoint) != ""
	default:
		return strings.TrimSpace(a.APIKey) != ""
	}
}

// LedgerConfig points at the sqlite run history; empty disables it.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both token and chat are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// SchedulerConfig defines when the daemon runs the pipelines.
type SchedulerConfig struct {
	CronExpression string `yaml:"cronExpression"`
}

// Location resolves the configured timezone.
func (c Config) Location() *time.Location {
	tz := c.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Now returns the current time in the configured timezone.
func (c Config) Now() time.Time {
	return time.Now().In(c.Location())
}

// Load reads YAML configuration (if present), merges <name>.local.yaml overrides,
// loads .env files and applies environment overrides. An explicit path wins over
// the PTT_SENTIMENT_CONFIG variable.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("merge config %s: %w", path, err)
		}
	}

	loadDotEnv()
	cfg.normalize()
	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg, nil
}

// readFile decodes <name>.<ext> and then overlays <name>.local.<ext> when present.
func readFile(path string) (Config, error) {
	var out Config

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	local := localPath(path)
	raw, err = os.ReadFile(local)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", local, err)
	}

	var override Config
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", local, err)
	}
	if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("merge config %s: %w", local, err)
	}
	return out, nil
}

func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// loadDotEnv reads ~/.env and ./.env without overriding variables already set.
func loadDotEnv() {
	candidates := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".env"))
	}
	for _, file := range candidates {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			log.Printf("config: cannot load %s: %v", file, err)
		}
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if c.Analysis.APIKey == "" {
		switch c.Analysis.Provider {
		case ProviderXAI, ProviderOpenAI:
			c.Analysis.APIKey = firstEnv(xaiAPIKeyEnv, openAIAPIKeyEnv)
		case ProviderAnthropic:
			c.Analysis.APIKey = os.Getenv(anthropicKeyEnv)
		}
	}

	if v := os.Getenv(ollamaURLEnv); v != "" && c.Analysis.Provider == ProviderOllama {
		c.Analysis.Endpoint = v
	}

	if v := os.Getenv(ledgerPathEnv); v != "" {
		c.Ledger.Path = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

// normalize fills provider-specific defaults the YAML left out.
func (c *Config) normalize() {
	c.Analysis.Provider = strings.ToLower(strings.TrimSpace(c.Analysis.Provider))

	switch c.Analysis.Provider {
	case ProviderOllama:
		if c.Analysis.Endpoint == "" || c.Analysis.Endpoint == defaultXAIEndpoint {
			c.Analysis.Endpoint = defaultOllamaEndpoint
		}
		if c.Analysis.Model == "" || c.Analysis.Model == defaultXAIModel {
			c.Analysis.Model = defaultOllamaModel
		}
	case ProviderAnthropic:
		// the SDK knows its own endpoint
		if c.Analysis.Endpoint == defaultXAIEndpoint {
			c.Analysis.Endpoint = ""
		}
		if c.Analysis.Model == "" || c.Analysis.Model == defaultXAIModel {
			c.Analysis.Model = defaultAnthropicModel
		}
	}

	if c.Analysis.Mode != ModeArticle {
		c.Analysis.Mode = ModeBatch
	}
	if c.Scrape.MaxPages <= 0 {
		c.Scrape.MaxPages = defaultMaxPages
	}
	if c.Scrape.MaxConsecutiveFailures <= 0 {
		c.Scrape.MaxConsecutiveFailures = defaultMaxFailures
	}
}

func (c *Config) bindTimezone() {
	tz := c.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		tz = defaultTimezone
	}
	c.Timezone = tz
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

const (
	defaultXAIEndpoint    = "https://api.x.ai/v1/chat/completions"
	defaultXAIModel       = "grok-3-beta"
	defaultOllamaEndpoint = "http://localhost:11434"
	defaultOllamaModel    = "gpt-oss:20b"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultMaxPages       = 20
	defaultMaxFailures    = 3
)

// Default returns a Config for the Stock board with the xAI provider.
func Default() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Timezone: defaultTimezone,
		Board: BoardConfig{
			Name:      "Stock",
			Scanner:   "ptt",
			BaseURL:   "https://www.ptt.cc",
			IndexPath: "/bbs/Stock/index.html",
		},
		Fetcher: FetcherConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
			Timeout:   20 * time.Second,
			Retries:   2,
		},
		Scrape: ScrapeConfig{
			MaxPages:               defaultMaxPages,
			MaxConsecutiveFailures: defaultMaxFailures,
			PageDelay:              time.Second,
			OutputDir:              "articles",
			ContentMaxLength:       2000,
		},
		Analysis: AnalysisConfig{
			Provider:     ProviderXAI,
			Endpoint:     defaultXAIEndpoint,
			Model:        defaultXAIModel,
			SystemPrompt: "你是一個專業的股市情緒分析師。請使用繁體中文回答，並使用台灣常用的金融術語。",
			OutputDir:    "analysis",
			Mode:         ModeBatch,
			Timeout:      5 * time.Minute,
		},
		Scheduler: SchedulerConfig{CronExpression: "30 22 * * *"},
	}
}
