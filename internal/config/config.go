package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DefaultASRURL     = "http://localhost:9000"
	DefaultASRTimeout = 60 * time.Second

	// largest audio upload accepted before any request is made
	DefaultMaxUploadBytes = 100 * 1024 * 1024
)

// Config holds settings resolved from defaults and the environment.
type Config struct {
	ASRURL         string
	ASRTimeout     time.Duration
	MaxUploadBytes int64

	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string

	FFmpegPath  string
	FFprobePath string
}

// Default returns a Config with built-in defaults only.
func Default() *Config {
	return &Config{
		ASRURL:         DefaultASRURL,
		ASRTimeout:     DefaultASRTimeout,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

// Load applies environment overrides on top of Default.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(getenv("SUBTIDE_ASR_URL")); v != "" {
		cfg.ASRURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(getenv("SUBTIDE_ASR_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SUBTIDE_ASR_TIMEOUT %q: %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("SUBTIDE_ASR_TIMEOUT must be positive, got %s", d)
		}
		cfg.ASRTimeout = d
	}

	cfg.OpenAIAPIKey = getenv("OPENAI_API_KEY")
	cfg.AnthropicAPIKey = getenv("ANTHROPIC_API_KEY")
	cfg.GeminiAPIKey = getenv("GEMINI_API_KEY")
	cfg.FFmpegPath = getenv("SUBTIDE_FFMPEG_PATH")
	cfg.FFprobePath = getenv("SUBTIDE_FFPROBE_PATH")

	return cfg, nil
}

// APIKey returns the key configured for an LLM or ASR provider name.
func (c *Config) APIKey(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// APIKeyEnv names the environment variable holding a provider's key.
func APIKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "API_KEY"
	}
}
