package vectorstore

import (
	"errors"
	"time"
)

type Config struct {
	// Concurrency bounds parallel embedding calls within one document.
	Concurrency int

	// Hosted index settings, used by the Pinecone backend only.
	APIKey    string
	IndexHost string
	Namespace string

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Concurrency: 4,
		Namespace:   "medrag",
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		RetryDelay:  2 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	return nil
}

// ValidateHosted checks the settings the Pinecone backend needs.
func (c *Config) ValidateHosted() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.IndexHost == "" {
		return errors.New("pinecone index host is required")
	}
	if c.APIKey == "" {
		return errors.New("pinecone API key is required")
	}
	if c.Namespace == "" {
		return errors.New("pinecone namespace is required")
	}
	return nil
}
