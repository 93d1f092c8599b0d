// Package vectorstore embeds document chunks, persists their vectors and ranks them
// against queries.
package vectorstore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/iyunix/go-medrag/internal/services/ai"
)

// Store coordinates embedding and a vector Backend.
type Store struct {
	embedder Embedder
	backend  Backend
	config   *Config
	locks    *keyedMutex
	logger   Logger
}

func NewStore(embedder Embedder, backend Backend, config *Config, logger Logger) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Store{
		embedder: embedder,
		backend:  backend,
		config:   config,
		locks:    newKeyedMutex(),
		logger:   logger,
	}, nil
}

// UpsertChunks embeds chunks in parallel and replaces the document's vectors with the
// ones that succeeded. Embedding failures are reported, not returned, except provider
// configuration errors, which abort the upsert without writing. Cancellation is
// checked before every embedding call and aborts without writing. Calls for the same
// document are serialized.
func (s *Store) UpsertChunks(ctx context.Context, documentID string, chunks []Chunk) (*UpsertReport, error) {
	if documentID == "" {
		return nil, NewOperationError("document id is required", nil)
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	vectors := make([][]float32, len(chunks))
	errs := make([]error, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for i := range chunks {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec, err := s.embedder.CreateEmbedding(gctx, chunks[i].Content)
			if err != nil {
				if ai.IsConfigError(err) {
					return err
				}
				errs[i] = err
				return nil
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &UpsertReport{}
	records := make([]Record, 0, len(chunks))
	for i, c := range chunks {
		if errs[i] != nil {
			report.Failed = append(report.Failed, FailedChunk{Index: c.Index, Err: errs[i]})
			s.logger.Warn("chunk embedding failed", "document_id", documentID, "chunk_index", c.Index, "error", errs[i])
			continue
		}
		records = append(records, Record{
			DocumentID: documentID,
			ChunkID:    c.ID,
			ChunkIndex: c.Index,
			Content:    c.Content,
			Vector:     vectors[i],
			Metadata:   map[string]interface{}{"document_id": documentID, "chunk_index": c.Index},
		})
		report.Stored = append(report.Stored, c.Index)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ChunkIndex < records[j].ChunkIndex })
	sort.Ints(report.Stored)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Index < report.Failed[j].Index })

	if err := s.backend.Replace(ctx, documentID, records); err != nil {
		s.logger.Error("vector replace failed", "document_id", documentID, "error", err)
		return nil, NewOperationError("replace vectors", err)
	}

	s.logger.Info("chunks indexed", "document_id", documentID, "stored", len(report.Stored), "failed", len(report.Failed))
	return report, nil
}

// Search embeds query and returns at most limit matches in descending similarity.
// A nil documentIDs searches every document. No stored vectors in scope yields an
// empty result; fallbacks are the caller's concern.
func (s *Store) Search(ctx context.Context, query string, documentIDs []string, limit int) ([]Match, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}
	vec, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	matches, err := s.backend.Nearest(ctx, vec, documentIDs, limit)
	if err != nil {
		return nil, NewOperationError("search", err)
	}
	s.logger.Debug("similarity search completed", "results_count", len(matches), "scope", len(documentIDs))
	return matches, nil
}

// DeleteDocument removes every vector of documentID.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	unlock := s.locks.Lock(documentID)
	defer unlock()

	if err := s.backend.Delete(ctx, documentID); err != nil {
		return NewOperationError("delete vectors", err)
	}
	return nil
}

// IsStoreError reports whether err came from the store rather than the embedder.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
