// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	// ProviderOpenAI selects an OpenAI-compatible chat completion API.
	ProviderOpenAI = "openai"

	// ProviderGemini selects the Google Gemini API.
	ProviderGemini = "gemini"
)

// Providers lists the supported provider names.
var Providers = []string{ProviderOpenAI, ProviderGemini}

// Config holds configuration for the guide generation provider.
type Config struct {
	// Provider selects the backend implementation.
	// One of ProviderOpenAI or ProviderGemini.
	Provider string

	// Host is the base URL for OpenAI-compatible services.
	// Example: "https://api.openai.com/v1" or "http://localhost:11434/v1"
	// Ignored by the Gemini provider.
	Host string

	// Model is the model identifier used to write guide sections.
	// Example: "gpt-3.5-turbo", "qwen2.5:7b", "gemini-1.5-flash"
	Model string

	// APIKey authenticates against the provider.
	// Local OpenAI-compatible servers accept any value; Gemini requires a key.
	APIKey string

	// Temperature controls sampling randomness (0.0 - 2.0).
	// Default: 0.2
	Temperature float64

	// RequestTimeout bounds a single generation call. Zero disables the timeout.
	// Default: 2m
	RequestTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the provider name.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the OpenAI-compatible service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithRequestTimeout sets the per-call timeout.
func WithRequestTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = timeout
	}
}

// DefaultConfig returns a Config with sensible defaults for the hosted OpenAI API.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		Host:           "https://api.openai.com/v1",
		Model:          "gpt-3.5-turbo",
		Temperature:    0.2,
		RequestTimeout: 2 * time.Minute,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithModel("qwen2.5:7b"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Provider names are lowercased and OpenAI-compatible hosts get the /v1 suffix
// required by most compatible servers (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == ProviderOpenAI && c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if !slices.Contains(Providers, c.Provider) {
		return fmt.Errorf("ai config: unknown provider %q (want one of %s)", c.Provider, strings.Join(Providers, ", "))
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	switch c.Provider {
	case ProviderOpenAI:
		if c.Host == "" {
			return errors.New("ai config: Host is required for the openai provider")
		}
	case ProviderGemini:
		if c.APIKey == "" {
			return errors.New("ai config: APIKey is required for the gemini provider")
		}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.RequestTimeout < 0 {
		return errors.New("ai config: RequestTimeout cannot be negative")
	}
	return nil
}
