// File: internal/domain/chunk.go
package domain

// Chunk is an ordered slice of a document's normalized text.
type Chunk struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	DocumentID string `json:"documentId" gorm:"size:36;not null;uniqueIndex:idx_chunk_position"`
	Index      int    `json:"index" gorm:"column:chunk_index;not null;uniqueIndex:idx_chunk_position"`
	Content    string `json:"content" gorm:"not null"`
}
