package entities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Token is one aggregated token-classification span.
type Token struct {
	Group string  `json:"entity_group"`
	Word  string  `json:"word"`
	Score float64 `json:"score"`
	Start int     `json:"start"`
	End   int     `json:"end"`
}

// TokenClassifier runs a named-entity model over a bounded piece of text.
type TokenClassifier interface {
	Classify(ctx context.Context, text string) ([]Token, error)
}

// HTTPClassifier calls a token-classification inference server that accepts
// {"inputs": text} and answers with aggregated entity spans.
type HTTPClassifier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPClassifier(endpoint string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Inputs     string            `json:"inputs"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string) ([]Token, error) {
	body, err := json.Marshal(classifyRequest{
		Inputs:     text,
		Parameters: map[string]string{"aggregation_strategy": "simple"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token classification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("token classification HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var tokens []Token
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, &ParseError{Message: "invalid token classification response", Cause: err}
	}
	return tokens, nil
}

// LoadFunc produces a ready classifier, for example by warming up a remote model.
type LoadFunc func(ctx context.Context) (TokenClassifier, error)

// HTTPLoader returns a LoadFunc that considers the model loaded once a warm-up
// classification succeeds.
func HTTPLoader(endpoint string, timeout time.Duration) LoadFunc {
	return func(ctx context.Context) (TokenClassifier, error) {
		c := NewHTTPClassifier(endpoint, timeout)
		if _, err := c.Classify(ctx, "Patient has hypertension."); err != nil {
			return nil, err
		}
		return c, nil
	}
}

// ModelHandle loads a classifier on first use and shares it across callers. A failed
// load is not cached, so a later call tries again.
type ModelHandle struct {
	mu     sync.Mutex
	load   LoadFunc
	model  TokenClassifier
	logger Logger
}

func NewModelHandle(load LoadFunc, logger Logger) *ModelHandle {
	if logger == nil {
		logger = nopLogger{}
	}
	return &ModelHandle{load: load, logger: logger}
}

// Get returns the loaded classifier, loading it if needed.
func (h *ModelHandle) Get(ctx context.Context) (TokenClassifier, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.model != nil {
		return h.model, nil
	}
	if h.load == nil {
		return nil, fmt.Errorf("no token classifier configured")
	}

	h.logger.Info("Loading NER model")
	m, err := h.load(ctx)
	if err != nil {
		h.logger.Warn("NER model load failed", "error", err)
		return nil, err
	}
	h.model = m
	return m, nil
}

// Close releases the loaded classifier.
func (h *ModelHandle) Close() {
	h.mu.Lock()
	h.model = nil
	h.mu.Unlock()
}
