package retrieval

import (
	"fmt"
	"time"
)

type Config struct {
	// Tier 1
	RetrievalTopK int

	// Tier 2 and 3 scores
	SubstringSimilarity float64
	LeadingChunks       int
	LeadingSimilarity   float64

	ChatModel string
	Timeout   time.Duration

	// Citation excerpt length in characters
	ExcerptLength int
}

func (c *Config) Validate() error {
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("retrieval_top_k must be positive")
	}
	if c.RetrievalTopK > 20 {
		return fmt.Errorf("retrieval_top_k cannot exceed 20")
	}
	if c.LeadingChunks <= 0 {
		return fmt.Errorf("leading_chunks must be positive")
	}
	if c.ChatModel == "" {
		return fmt.Errorf("chat_model is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ExcerptLength <= 0 {
		return fmt.Errorf("excerpt_length must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		RetrievalTopK:       5,
		SubstringSimilarity: 0.5,
		LeadingChunks:       3,
		LeadingSimilarity:   0.3,
		ChatModel:           "gpt-4o-mini",
		Timeout:             120 * time.Second,
		ExcerptLength:       200,
	}
}
