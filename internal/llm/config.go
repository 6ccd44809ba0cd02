package llm

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
)

// loads generator configuration from environment variables
func LoadConfig() (*Config, error) {
	provider := Provider(os.Getenv("GENERATOR_PROVIDER"))
	if provider == "" {
		provider = ProviderGemini
	}

	cfg := &Config{
		Provider:    provider,
		Model:       os.Getenv("GENERATOR_MODEL"),
		BaseURL:     os.Getenv("GENERATOR_BASE_URL"),
		MaxTokens:   2048,
		Temperature: 0.7,
	}

	switch provider {
	case ProviderGemini:
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}

		if cfg.Model == "" {
			cfg.Model = defaultGeminiModel
		}
	case ProviderAnthropic:
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
		}

		if cfg.Model == "" {
			cfg.Model = defaultAnthropicModel
		}
	case ProviderOffline:
		if cfg.Model == "" {
			cfg.Model = offlineModel
		}
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", provider)
	}

	if maxTokensStr := os.Getenv("GENERATOR_MAX_TOKENS"); maxTokensStr != "" {
		if val, err := strconv.Atoi(maxTokensStr); err == nil {
			cfg.MaxTokens = val
		}
	}

	if tempStr := os.Getenv("GENERATOR_TEMPERATURE"); tempStr != "" {
		if val, err := strconv.ParseFloat(tempStr, 32); err == nil {
			cfg.Temperature = float32(val)
		}
	}

	return cfg, nil
}
