package vectorstore

import "context"

// Embedder maps text to a unit vector.
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Backend persists chunk vectors and ranks them against a query vector.
type Backend interface {
	// Replace deletes every vector of documentID and stores records in their place.
	Replace(ctx context.Context, documentID string, records []Record) error
	// Nearest returns at most limit matches in descending similarity, scoped to
	// documentIDs when non-empty.
	Nearest(ctx context.Context, vector []float32, documentIDs []string, limit int) ([]Match, error)
	Delete(ctx context.Context, documentID string) error
}

// Logger interface for vector store operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Chunk is the input unit of UpsertChunks.
type Chunk struct {
	ID      string
	Index   int
	Content string
}

// Record is a chunk with its vector, as handed to a Backend.
type Record struct {
	DocumentID string
	ChunkID    string
	ChunkIndex int
	Content    string
	Vector     []float32
	Metadata   map[string]interface{}
}

// Match is one ranked search result.
type Match struct {
	DocumentID string  `json:"documentId"`
	ChunkID    string  `json:"chunkId"`
	ChunkIndex int     `json:"chunkIndex"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// FailedChunk names a chunk that could not be embedded.
type FailedChunk struct {
	Index int
	Err   error
}

// UpsertReport tells the caller which chunks were stored and which were not.
type UpsertReport struct {
	Stored []int
	Failed []FailedChunk
}

// FailedIndices returns the indices of the failed chunks in ascending order.
func (r *UpsertReport) FailedIndices() []int {
	out := make([]int, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Index)
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
