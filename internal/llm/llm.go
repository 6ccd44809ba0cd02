package llm

import (
	"context"
	"fmt"
)

// creates a generator with auto-configuration from environment variables
func NewGenerator(ctx context.Context) (TextGenerator, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load LLM config: %w", err)
	}

	return NewGeneratorWithConfig(ctx, config)
}

// creates a generator with explicit configuration
func NewGeneratorWithConfig(ctx context.Context, config *Config) (TextGenerator, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiGenerator(ctx, *config)
	case ProviderAnthropic:
		return NewAnthropicGenerator(*config), nil
	case ProviderOffline:
		return NewOfflineGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", config.Provider)
	}
}
