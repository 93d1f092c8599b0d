// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"time"
)

type Config struct {
	// Embedding Configuration
	EmbeddingKey     string
	EmbeddingBaseURL string
	EmbeddingModel   string

	// LLM Configuration
	LLMKey     string
	LLMBaseURL string

	// Performance Configuration. Timeouts apply per attempt.
	EmbeddingTimeout time.Duration
	SynthesisTimeout time.Duration
	MaxRetries       int
	RetryDelay       time.Duration

	// Model Parameters
	Temperature float32
	TopP        float32
}

// Validate checks the settings every call depends on. API keys are checked per call,
// so a provider without credentials can still be constructed.
func (c *Config) Validate() error {
	if c.EmbeddingModel == "" {
		return fmt.Errorf("EMBEDDING_MODEL_NAME is required")
	}
	if c.EmbeddingTimeout <= 0 || c.SynthesisTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		EmbeddingModel:   "text-embedding-3-small",
		EmbeddingTimeout: 30 * time.Second,
		SynthesisTimeout: 90 * time.Second,
		MaxRetries:       2,
		RetryDelay:       time.Second,
		Temperature:      0.1,
		TopP:             0.9,
	}
}
