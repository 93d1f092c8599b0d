// File: internal/domain/document.go
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one ingested medical report. Re-processing replaces it wholesale.
type Document struct {
	ID         string    `json:"documentId" gorm:"primaryKey;size:36"`
	FileName   string    `json:"fileName" gorm:"not null"`
	UploadedAt time.Time `json:"uploadDate" gorm:"index;not null"`
	Text       string    `json:"-" gorm:"not null"`

	Sections    datatypes.JSONType[map[string]string] `json:"sections"`
	Entities    datatypes.JSON                        `json:"entities"`
	TestResults datatypes.JSON                        `json:"testResults"`
	Graph       datatypes.JSON                        `json:"knowledgeGraph"`

	ChunkCount   int                      `json:"chunkCount"`
	FailedChunks datatypes.JSONSlice[int] `json:"failedChunks,omitempty"`
	Chunks       []Chunk                  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// DocumentSummary is the listing projection of a Document.
type DocumentSummary struct {
	ID         string    `json:"documentId"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadDate"`
}
