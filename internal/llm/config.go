package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Config selects and configures the model provider.
type Config struct {
	Provider string

	Anthropic  Endpoint
	OpenAI     Endpoint
	Gemini     Endpoint
	OpenRouter Endpoint

	Retry RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// Endpoint is the credentials and model for one provider. BaseURL is
// only honoured by OpenAI-compatible providers.
type Endpoint struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig shapes the exponential backoff of WithRetry.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig uses Gemini Flash, which is what the question generator
// is tuned for.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderGemini,
		Anthropic:  Endpoint{Model: "claude-haiku"},
		OpenAI:     Endpoint{Model: "gpt-4o-mini"},
		Gemini:     Endpoint{Model: "gemini-flash"},
		OpenRouter: Endpoint{Model: "google/gemini-2.0-flash-001", BaseURL: openRouterBaseURL},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// envOverrides lists the SHELF_* variables ConfigFromEnv reads.
var envOverrides = []struct {
	name  string
	apply func(*Config, string)
}{
	{"SHELF_LLM_PROVIDER", func(c *Config, v string) { c.Provider = v }},
	{"SHELF_ANTHROPIC_API_KEY", func(c *Config, v string) { c.Anthropic.APIKey = v }},
	{"SHELF_ANTHROPIC_MODEL", func(c *Config, v string) { c.Anthropic.Model = v }},
	{"SHELF_OPENAI_API_KEY", func(c *Config, v string) { c.OpenAI.APIKey = v }},
	{"SHELF_OPENAI_MODEL", func(c *Config, v string) { c.OpenAI.Model = v }},
	{"SHELF_OPENAI_BASE_URL", func(c *Config, v string) { c.OpenAI.BaseURL = v }},
	{"SHELF_GEMINI_API_KEY", func(c *Config, v string) { c.Gemini.APIKey = v }},
	{"SHELF_GEMINI_MODEL", func(c *Config, v string) { c.Gemini.Model = v }},
	{"SHELF_OPENROUTER_API_KEY", func(c *Config, v string) { c.OpenRouter.APIKey = v }},
	{"SHELF_OPENROUTER_MODEL", func(c *Config, v string) { c.OpenRouter.Model = v }},
	{"SHELF_LLM_TIMEOUT", func(c *Config, v string) {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}},
}

// ConfigFromEnv applies the SHELF_* variables over DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			o.apply(&cfg, v)
		}
	}
	return cfg
}

// DiscoverConfig looks for the vendors' own key variables, Gemini first,
// and reports false when none is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	probes := []struct {
		env      string
		provider string
		ep       *Endpoint
	}{
		{"GEMINI_API_KEY", ProviderGemini, &cfg.Gemini},
		{"OPENAI_API_KEY", ProviderOpenAI, &cfg.OpenAI},
		{"ANTHROPIC_API_KEY", ProviderAnthropic, &cfg.Anthropic},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, &cfg.OpenRouter},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg.Provider = p.provider
			p.ep.APIKey = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Endpoint returns the settings of the selected provider.
func (c Config) Endpoint() (Endpoint, error) {
	switch c.Provider {
	case ProviderAnthropic:
		return c.Anthropic, nil
	case ProviderOpenAI:
		return c.OpenAI, nil
	case ProviderGemini:
		return c.Gemini, nil
	case ProviderOpenRouter:
		ep := c.OpenRouter
		if ep.BaseURL == "" {
			ep.BaseURL = openRouterBaseURL
		}
		return ep, nil
	case ProviderMock:
		return Endpoint{Model: "mock"}, nil
	}
	return Endpoint{}, fmt.Errorf("unknown LLM provider %q", c.Provider)
}

// Validate checks the selected provider has an API key.
func (c Config) Validate() error {
	ep, err := c.Endpoint()
	if err != nil {
		return err
	}
	if c.Provider != ProviderMock && ep.APIKey == "" {
		return fmt.Errorf("%s provider needs an API key (SHELF_%s_API_KEY)", c.Provider, envName(c.Provider))
	}
	if c.Retry.MaxAttempts < 0 {
		return errors.New("retry attempts must not be negative")
	}
	return nil
}

func envName(provider string) string {
	return strings.ToUpper(provider)
}
