package document

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/iyunix/go-medrag/internal/domain"
)

var ErrDocumentNotFound = errors.New("document not found")

type gormDocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &gormDocumentRepository{db: db}
}

// AutoMigrate creates the document and chunk tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Document{}, &domain.Chunk{})
}

// Create stores the document together with its chunks in one transaction.
func (r *gormDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if err := validateDocument(doc); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chunks := doc.Chunks
		if err := tx.Omit("Chunks").Create(doc).Error; err != nil {
			return fmt.Errorf("database error creating document: %w", err)
		}
		if len(chunks) > 0 {
			if err := tx.CreateInBatches(&chunks, 100).Error; err != nil {
				return fmt.Errorf("database error creating chunks: %w", err)
			}
		}
		return nil
	})
}

func (r *gormDocumentRepository) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, ErrDocumentNotFound
	}
	var doc domain.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	return handleFindError(err, &doc)
}

// MostRecent returns the latest upload.
func (r *gormDocumentRepository) MostRecent(ctx context.Context) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).Order("uploaded_at DESC, id DESC").First(&doc).Error
	return handleFindError(err, &doc)
}

// List returns summaries newest first.
func (r *gormDocumentRepository) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	var out []domain.DocumentSummary
	err := r.db.WithContext(ctx).
		Model(&domain.Document{}).
		Select("id", "file_name", "uploaded_at").
		Order("uploaded_at DESC, id DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("database error listing documents: %w", err)
	}
	return out, nil
}

// ListChunks returns a document's chunks in index order.
func (r *gormDocumentRepository) ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("database error listing chunks: %w", err)
	}
	return chunks, nil
}

func (r *gormDocumentRepository) SetFailedChunks(ctx context.Context, documentID string, indices []int) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ?", documentID).
		Update("failed_chunks", datatypes.JSONSlice[int](indices))
	if result.Error != nil {
		return fmt.Errorf("database error updating failed chunks: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Delete removes the document and its chunks. Vectors are the caller's concern.
func (r *gormDocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&domain.Chunk{}).Error; err != nil {
			return fmt.Errorf("database error deleting chunks: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&domain.Document{})
		if result.Error != nil {
			return fmt.Errorf("database error deleting document: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrDocumentNotFound
		}
		return nil
	})
}

func handleFindError(err error, doc *domain.Document) (*domain.Document, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("database error finding document: %w", err)
	}
	return doc, nil
}

func validateDocument(doc *domain.Document) error {
	if doc == nil {
		return errors.New("document cannot be nil")
	}
	if doc.ID == "" {
		return errors.New("document ID is required")
	}
	if doc.FileName == "" {
		return errors.New("file name is required")
	}
	seen := make(map[int]bool, len(doc.Chunks))
	for _, c := range doc.Chunks {
		if c.DocumentID != doc.ID {
			return fmt.Errorf("chunk %d belongs to another document", c.Index)
		}
		if seen[c.Index] {
			return fmt.Errorf("duplicate chunk index %d", c.Index)
		}
		seen[c.Index] = true
	}
	return nil
}
