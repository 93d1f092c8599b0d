package document

import (
	"context"

	"github.com/iyunix/go-medrag/internal/domain"
)

// DocumentRepository handles document and chunk persistence.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	FindByID(ctx context.Context, id string) (*domain.Document, error)
	MostRecent(ctx context.Context) (*domain.Document, error)
	List(ctx context.Context) ([]domain.DocumentSummary, error)
	ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
	SetFailedChunks(ctx context.Context, documentID string, indices []int) error
	Delete(ctx context.Context, id string) error
}
