package retrieval

import (
	"context"
	"time"

	"github.com/iyunix/go-medrag/internal/domain"
	"github.com/iyunix/go-medrag/internal/services/entities"
	"github.com/iyunix/go-medrag/internal/services/labs"
	"github.com/iyunix/go-medrag/internal/services/vectorstore"
)

// Logger defines the logging interface used across retrieval
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Searcher is the semantic search capability.
type Searcher interface {
	Search(ctx context.Context, query string, documentIDs []string, limit int) ([]vectorstore.Match, error)
}

// ChunkSource lists a document's stored chunks in index order.
type ChunkSource interface {
	ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
}

// Synthesizer turns a prompt into an answer.
type Synthesizer interface {
	GetCompletion(ctx context.Context, model, prompt string) (string, error)
}

// Target is a document a query is answered from, with its extraction output.
type Target struct {
	ID         string
	FileName   string
	UploadedAt time.Time
	Entities   entities.Result
	Results    map[labs.TestKey]labs.TestResult
}

// Candidate is a chunk selected as context. Similarity is nil when unscored.
type Candidate struct {
	DocumentID string
	ChunkID    string
	ChunkIndex int
	Content    string
	Similarity *float64
}

// Tier names, in the order they are tried.
const (
	TierVector    = "vector"
	TierSubstring = "substring"
	TierLeading   = "leading"
)

// Source is a cited chunk in an answer.
type Source struct {
	ID         string   `json:"id"`
	DocumentID string   `json:"documentId"`
	Excerpt    string   `json:"excerpt"`
	Similarity *float64 `json:"similarity"`
}

// Answer is the outcome of a query. Degraded is set when synthesis failed and the
// text was assembled from the retrieved context instead.
type Answer struct {
	Text     string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Tier     string   `json:"tier"`
	Degraded bool     `json:"degraded,omitempty"`
}
