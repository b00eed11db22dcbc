package llm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// Exchange is a prompt/response pair kept for debugging.
type Exchange struct {
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Scope     string    `json:"scope"`
	System    string    `json:"system,omitempty"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Error     string    `json:"error,omitempty"`
}

// ExchangeCache writes exchanges as indented JSON files under dir.
type ExchangeCache struct {
	dir string
	seq atomic.Int64
}

// NewExchangeCache returns nil when dir is empty, which disables caching.
func NewExchangeCache(dir string) *ExchangeCache {
	if dir == "" {
		return nil
	}
	return &ExchangeCache{dir: dir}
}

// Save writes exchange to a timestamped file and returns its path.
func (c *ExchangeCache) Save(exchange Exchange) (string, error) {
	if c == nil {
		return "", nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	name := fmt.Sprintf("%s-%03d.json", exchange.Timestamp.Format("2006-01-02T15-04-05"), c.seq.Add(1))
	path := filepath.Join(c.dir, name)

	data, err := json.MarshalIndent(exchange, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode exchange: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write exchange: %w", err)
	}
	return path, nil
}
