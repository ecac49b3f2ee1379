// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/poiesic/studyguide/ai"
)

// Prefix is prepended to every environment variable, e.g. STUDYGUIDE_MODEL.
const Prefix = "STUDYGUIDE"

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalid         = errors.New("invalid configuration")
)

type Config struct {
	// Generation provider
	Provider       string        `envconfig:"PROVIDER" default:"openai"`
	Host           string        `envconfig:"HOST" default:"https://api.openai.com/v1"`
	Model          string        `envconfig:"MODEL" default:"gpt-3.5-turbo"`
	APIKey         string        `envconfig:"API_KEY"`
	Temperature    float64       `envconfig:"TEMPERATURE" default:"0.2"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"2m"`

	// Generation run
	Concurrency int           `envconfig:"CONCURRENCY" default:"4"`
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"1"`
	RetryDelay  time.Duration `envconfig:"RETRY_DELAY" default:"1s"`

	// Chunking
	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"4000"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`

	// Cache; an empty CacheDir keeps everything in memory
	CacheDir           string        `envconfig:"CACHE_DIR"`
	CacheTTL           time.Duration `envconfig:"CACHE_TTL" default:"2h"`
	CacheMaxEntries    int           `envconfig:"CACHE_MAX_ENTRIES" default:"5"`
	DownloadClearDelay time.Duration `envconfig:"DOWNLOAD_CLEAR_DELAY" default:"3s"`

	// Server
	ListenAddr      string `envconfig:"LISTEN_ADDR" default:":8080"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"100"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		cfg.APIKey = providerKeyFromEnv(cfg.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// providerKeyFromEnv falls back to the provider's conventional variable.
func providerKeyFromEnv(provider string) string {
	switch provider {
	case ai.ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: %s_MODEL", ErrMissingRequired, Prefix)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: %s_LISTEN_ADDR", ErrMissingRequired, Prefix)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalid, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", ErrInvalid, c.ChunkSize, c.ChunkOverlap)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalid, c.MaxAttempts)
	}
	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("%w: max upload size must be positive, got %d", ErrInvalid, c.MaxUploadSizeMB)
	}
	if c.CacheTTL < 0 || c.DownloadClearDelay < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("%w: durations cannot be negative", ErrInvalid)
	}
	return nil
}

// AI returns the generator settings.
func (c *Config) AI() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(c.Provider),
		ai.WithHost(c.Host),
		ai.WithModel(c.Model),
		ai.WithAPIKey(c.APIKey),
		ai.WithTemperature(c.Temperature),
		ai.WithRequestTimeout(c.RequestTimeout),
	)
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB << 20
}
