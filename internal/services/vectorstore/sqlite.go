package vectorstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/iyunix/go-medrag/internal/domain"
)

// SQLBackend keeps vectors in the relational database and ranks them with a
// brute-force cosine scan.
type SQLBackend struct {
	db *gorm.DB
}

func NewSQLBackend(db *gorm.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// AutoMigrate creates the embedding table.
func (b *SQLBackend) AutoMigrate() error {
	return b.db.AutoMigrate(&domain.EmbeddingRecord{})
}

func (b *SQLBackend) Replace(ctx context.Context, documentID string, records []Record) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&domain.EmbeddingRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete embeddings: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		rows := make([]domain.EmbeddingRecord, 0, len(records))
		for _, r := range records {
			rows = append(rows, domain.EmbeddingRecord{
				DocumentID: documentID,
				ChunkID:    r.ChunkID,
				ChunkIndex: r.ChunkIndex,
				Content:    r.Content,
				Vector:     serializeVector(r.Vector),
				Metadata:   r.Metadata,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert embeddings: %w", err)
		}
		return nil
	})
}

func (b *SQLBackend) Nearest(ctx context.Context, vector []float32, documentIDs []string, limit int) ([]Match, error) {
	q := b.db.WithContext(ctx).Model(&domain.EmbeddingRecord{}).Order("id ASC")
	if len(documentIDs) > 0 {
		q = q.Where("document_id IN ?", documentIDs)
	}

	var rows []domain.EmbeddingRecord
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, Match{
			DocumentID: row.DocumentID,
			ChunkID:    row.ChunkID,
			ChunkIndex: row.ChunkIndex,
			Content:    row.Content,
			Similarity: CosineSimilarity(vector, deserializeVector(row.Vector)),
		})
	}
	return rankTopK(matches, limit), nil
}

func (b *SQLBackend) Delete(ctx context.Context, documentID string) error {
	if err := b.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&domain.EmbeddingRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return nil
}

// Count returns the number of stored vectors for documentID.
func (b *SQLBackend) Count(ctx context.Context, documentID string) (int64, error) {
	var n int64
	err := b.db.WithContext(ctx).Model(&domain.EmbeddingRecord{}).Where("document_id = ?", documentID).Count(&n).Error
	return n, err
}

func serializeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
