// File: internal/domain/embedding.go
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// EmbeddingRecord is the stored vector of one chunk. Content is a denormalized copy.
type EmbeddingRecord struct {
	ID         uint              `gorm:"primarykey"`
	DocumentID string            `gorm:"size:36;not null;index"`
	ChunkID    string            `gorm:"size:36;not null;uniqueIndex"`
	ChunkIndex int               `gorm:"not null"`
	Content    string            `gorm:"not null"`
	Vector     []byte            `gorm:"not null"`
	Metadata   datatypes.JSONMap
	CreatedAt  time.Time
}
