package vectorstore

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/v4/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/iyunix/go-medrag/internal/services/ai"
)

const upsertBatchSize = 100

// vectorIndex is the part of *pinecone.IndexConnection the backend uses.
type vectorIndex interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	DeleteVectorsByFilter(ctx context.Context, filter *pinecone.MetadataFilter) error
	Close() error
}

// PineconeBackend stores vectors in a hosted Pinecone index namespace. Chunk text
// travels as metadata so matches can be returned without a second lookup.
type PineconeBackend struct {
	index  vectorIndex
	retry  *ai.RetryService
	config *Config
	logger Logger
}

// NewPineconeBackend connects to the index host named in config.
func NewPineconeBackend(config *Config, logger Logger) (*PineconeBackend, error) {
	if err := config.ValidateHosted(); err != nil {
		return nil, NewConfigError(err.Error())
	}
	if logger == nil {
		logger = nopLogger{}
	}
	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: config.APIKey})
	if err != nil {
		return nil, NewConnectionError("failed to create pinecone client", err)
	}
	idx, err := pc.Index(pinecone.NewIndexConnParams{Host: config.IndexHost, Namespace: config.Namespace})
	if err != nil {
		return nil, NewConnectionError("failed to connect to index", err)
	}
	logger.Info("Pinecone index connection established", "host", config.IndexHost, "namespace", config.Namespace)
	return newPineconeBackend(idx, config, logger), nil
}

func newPineconeBackend(idx vectorIndex, config *Config, logger Logger) *PineconeBackend {
	if logger == nil {
		logger = nopLogger{}
	}
	return &PineconeBackend{
		index:  idx,
		retry:  ai.NewRetryService(config.MaxRetries, config.RetryDelay, logger),
		config: config,
		logger: logger,
	}
}

func (b *PineconeBackend) Replace(ctx context.Context, documentID string, records []Record) error {
	if err := b.Delete(ctx, documentID); err != nil {
		return err
	}

	vectors := make([]*pinecone.Vector, 0, len(records))
	for _, r := range records {
		meta, err := structpb.NewStruct(map[string]interface{}{
			"document_id": documentID,
			"chunk_id":    r.ChunkID,
			"chunk_index": r.ChunkIndex,
			"content":     r.Content,
		})
		if err != nil {
			return fmt.Errorf("failed to encode metadata for chunk %d: %w", r.ChunkIndex, err)
		}
		values := r.Vector
		vectors = append(vectors, &pinecone.Vector{Id: r.ChunkID, Values: &values, Metadata: meta})
	}

	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(vectors))
		batch := vectors[start:end]
		err := b.retry.RetryWithTimeout(ctx, b.config.Timeout, func(ctx context.Context) error {
			_, err := b.index.UpsertVectors(ctx, batch)
			return err
		})
		if err != nil {
			return NewOperationError("upsert vectors", err)
		}
	}
	b.logger.Debug("vectors upserted", "document_id", documentID, "count", len(vectors))
	return nil
}

func (b *PineconeBackend) Nearest(ctx context.Context, vector []float32, documentIDs []string, limit int) ([]Match, error) {
	req := &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(limit),
		IncludeMetadata: true,
	}
	if len(documentIDs) > 0 {
		filter, err := documentFilter(documentIDs)
		if err != nil {
			return nil, err
		}
		req.MetadataFilter = filter
	}

	var resp *pinecone.QueryVectorsResponse
	err := b.retry.RetryWithTimeout(ctx, b.config.Timeout, func(ctx context.Context) error {
		var err error
		resp, err = b.index.QueryByVectorValues(ctx, req)
		return err
	})
	if err != nil {
		b.logger.Error("similarity search failed", "error", err)
		return nil, NewOperationError("search operation failed", err)
	}
	if resp == nil {
		return nil, nil
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, sv := range resp.Matches {
		if sv == nil || sv.Vector == nil {
			continue
		}
		m := Match{ChunkID: sv.Vector.Id, Similarity: float64(sv.Score)}
		if meta := sv.Vector.Metadata; meta != nil {
			f := meta.GetFields()
			m.DocumentID = f["document_id"].GetStringValue()
			m.ChunkIndex = int(f["chunk_index"].GetNumberValue())
			m.Content = f["content"].GetStringValue()
		}
		matches = append(matches, m)
	}
	return rankTopK(matches, limit), nil
}

func (b *PineconeBackend) Delete(ctx context.Context, documentID string) error {
	filter, err := documentFilter([]string{documentID})
	if err != nil {
		return err
	}
	err = b.retry.RetryWithTimeout(ctx, b.config.Timeout, func(ctx context.Context) error {
		return b.index.DeleteVectorsByFilter(ctx, filter)
	})
	if err != nil {
		return NewOperationError("delete vectors", err)
	}
	return nil
}

func (b *PineconeBackend) Close() error {
	return b.index.Close()
}

// documentFilter scopes a request to the given documents.
func documentFilter(documentIDs []string) (*pinecone.MetadataFilter, error) {
	var cond map[string]interface{}
	if len(documentIDs) == 1 {
		cond = map[string]interface{}{"$eq": documentIDs[0]}
	} else {
		ids := make([]interface{}, len(documentIDs))
		for i, id := range documentIDs {
			ids[i] = id
		}
		cond = map[string]interface{}{"$in": ids}
	}
	filter, err := structpb.NewStruct(map[string]interface{}{"document_id": cond})
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata filter: %w", err)
	}
	return filter, nil
}
