package brickpick

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/bricktools/brickpick/internal/cache"
	"github.com/bricktools/brickpick/pkg/errors"
)

// Option is a function that configures a Brickpick instance.
type Option func(*config) error

// config holds the assembled configuration for a Brickpick instance.
type config struct {
	cacheDir    string
	apiKey      string
	apiBaseURL  string
	httpTimeout time.Duration
	fetcher     cache.Fetcher
	logger      zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		cacheDir:    "cache",
		httpTimeout: 10 * time.Second,
		logger:      zerolog.Nop(),
	}
}

func (b *brickpick) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(b.config); err != nil {
			return err
		}
	}
	return nil
}

// WithCacheDir configures where set inventories are cached on disk.
func WithCacheDir(dir string) Option {
	return func(c *config) error {
		if dir == "" {
			return errors.NewValidationError("cache_dir", dir, "cache directory cannot be empty")
		}
		c.cacheDir = dir
		return nil
	}
}

// WithAPIKey configures the Rebrickable API key used to fetch set
// inventories. Without a key, only already-cached sets are available.
func WithAPIKey(key string) Option {
	return func(c *config) error {
		c.apiKey = key
		return nil
	}
}

// WithAPIBaseURL overrides the Rebrickable API base URL.
func WithAPIBaseURL(url string) Option {
	return func(c *config) error {
		c.apiBaseURL = url
		return nil
	}
}

// WithHTTPTimeout configures the per-request timeout for API calls.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		if timeout <= 0 {
			return errors.NewValidationError("http_timeout", timeout, "timeout must be positive")
		}
		c.httpTimeout = timeout
		return nil
	}
}

// WithFetcher configures a custom inventory fetcher in place of the
// Rebrickable client.
func WithFetcher(f cache.Fetcher) Option {
	return func(c *config) error {
		c.fetcher = f
		return nil
	}
}

// WithLogger configures the logger used by all components.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
