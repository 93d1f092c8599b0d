// File: internal/services/ai/openai_provider.go
package ai

import (
	"context"
	"errors"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider embeds text and synthesizes answers through OpenAI-compatible APIs.
type OpenAIProvider struct {
	config          *Config
	embeddingClient *openai.Client
	llmClient       *openai.Client
	retry           *RetryService
}

func NewOpenAIProvider(config *Config, logger Logger) (*OpenAIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	llmConfig := openai.DefaultConfig(config.LLMKey)
	if config.LLMBaseURL != "" {
		llmConfig.BaseURL = config.LLMBaseURL
	}

	embeddingConfig := openai.DefaultConfig(config.EmbeddingKey)
	if config.EmbeddingBaseURL != "" {
		embeddingConfig.BaseURL = config.EmbeddingBaseURL
	}

	return &OpenAIProvider{
		config:          config,
		embeddingClient: openai.NewClientWithConfig(embeddingConfig),
		llmClient:       openai.NewClientWithConfig(llmConfig),
		retry:           NewRetryService(config.MaxRetries, config.RetryDelay, logger),
	}, nil
}

// CreateEmbedding returns the unit-length embedding of text.
func (p *OpenAIProvider) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	model := p.config.EmbeddingModel
	if text == "" {
		return nil, NewEmbeddingError(ErrTypeValidation, model, "text is empty", nil)
	}
	if p.config.EmbeddingKey == "" {
		return nil, NewEmbeddingError(ErrTypeConfig, model, "OPENAI_API_KEY is not set", nil)
	}

	var vector []float32
	err := p.retry.RetryWithTimeout(ctx, p.config.EmbeddingTimeout, func(ctx context.Context) error {
		resp, err := p.embeddingClient.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(model),
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return NewEmbeddingError(ErrTypeTimeout, model, "embedding timed out", err)
			}
			return NewEmbeddingError(ErrTypeProvider, model, "failed to create embedding", err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return NewEmbeddingError(ErrTypeProvider, model, "empty embedding response", nil)
		}
		vector = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		var embErr *EmbeddingError
		if !errors.As(err, &embErr) {
			err = NewEmbeddingError(ErrTypeTimeout, model, "embedding cancelled", err)
		}
		return nil, err
	}
	return Normalize(vector), nil
}

// GetCompletion sends prompt as a single user message.
func (p *OpenAIProvider) GetCompletion(ctx context.Context, model, prompt string) (string, error) {
	if p.config.LLMKey == "" {
		return "", NewSynthesisError(ErrTypeConfig, model, "LLM_API_KEY is not set", nil)
	}
	var content string
	err := p.retry.RetryWithTimeout(ctx, p.config.SynthesisTimeout, func(ctx context.Context) error {
		resp, err := p.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: p.config.Temperature,
			TopP:        p.config.TopP,
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return NewSynthesisError(ErrTypeTimeout, model, "completion timed out", err)
			}
			return NewSynthesisError(ErrTypeProvider, model, "failed to create completion", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return NewSynthesisError(ErrTypeProvider, model, "empty completion response", nil)
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		var synErr *SynthesisError
		if !errors.As(err, &synErr) {
			err = NewSynthesisError(ErrTypeTimeout, model, "completion cancelled", err)
		}
		return "", err
	}
	return content, nil
}

// Normalize scales v to unit length. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
