package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/iyunix/go-medrag/internal/domain"
	"github.com/iyunix/go-medrag/internal/repository/document"
	"github.com/iyunix/go-medrag/internal/services/entities"
	"github.com/iyunix/go-medrag/internal/services/labs"
	"github.com/iyunix/go-medrag/internal/services/retrieval"
	"github.com/iyunix/go-medrag/internal/services/textproc"
	"github.com/iyunix/go-medrag/internal/services/vectorstore"
)

// Ingestion stages reported by IngestError.
const (
	StageValidate = "validate"
	StageChunk    = "chunk"
	StagePersist  = "persist"
	StageEmbed    = "embed"
)

// IngestError names the pipeline stage an ingestion failed in.
type IngestError struct {
	Stage string
	Cause error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingestion failed at %s: %v", e.Stage, e.Cause)
}

func (e *IngestError) Unwrap() error {
	return e.Cause
}

// VectorIndex is the vector store surface used by the pipeline.
type VectorIndex interface {
	UpsertChunks(ctx context.Context, documentID string, chunks []vectorstore.Chunk) (*vectorstore.UpsertReport, error)
	DeleteDocument(ctx context.Context, documentID string) error
}

// EntityExtractor never fails; failures are carried as a marker on the result.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) entities.Result
}

// Answerer runs retrieval and synthesis for a query.
type Answerer interface {
	Answer(ctx context.Context, query string, targets []retrieval.Target) (*retrieval.Answer, error)
}

// IngestResult is returned to the caller of Ingest.
type IngestResult struct {
	DocumentID   string          `json:"documentId"`
	FileName     string          `json:"fileName"`
	Entities     entities.Result `json:"entities"`
	TestResults  *labs.Report    `json:"testResults"`
	ChunkCount   int             `json:"chunkCount"`
	FailedChunks []int           `json:"failedChunks,omitempty"`
}

// DocumentService is the ingestion and query pipeline over stored reports.
type DocumentService struct {
	repo      document.DocumentRepository
	index     VectorIndex
	entities  EntityExtractor
	answerer  Answerer
	comp      *labs.Compensator
	parser    *labs.Parser
	segmenter *textproc.Segmenter
	chunker   *textproc.Chunker
	logger    Logger
	now       func() time.Time
}

func NewDocumentService(
	repo document.DocumentRepository,
	index VectorIndex,
	entityExtractor EntityExtractor,
	answerer Answerer,
	comp *labs.Compensator,
	chunker *textproc.Chunker,
	logger Logger,
) (*DocumentService, error) {
	if repo == nil {
		return nil, errors.New("document repository is required")
	}
	if index == nil {
		return nil, errors.New("vector index is required")
	}
	if entityExtractor == nil {
		return nil, errors.New("entity extractor is required")
	}
	if answerer == nil {
		return nil, errors.New("answerer is required")
	}
	if chunker == nil {
		chunker = textproc.NewChunker()
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &DocumentService{
		repo:      repo,
		index:     index,
		entities:  entityExtractor,
		answerer:  answerer,
		comp:      comp,
		parser:    labs.NewParser(comp, logger),
		segmenter: textproc.NewSegmenter(),
		chunker:   chunker,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Ingest normalizes and analyzes a report, stores it with its chunks and indexes the
// chunk vectors. Chunks whose embedding failed are recorded on the document and
// returned; the document stays queryable through the fallback tiers.
func (s *DocumentService) Ingest(ctx context.Context, fileText, fileName string) (*IngestResult, error) {
	if strings.TrimSpace(fileText) == "" {
		return nil, &IngestError{Stage: StageValidate, Cause: errors.New("document text is empty")}
	}
	if fileName == "" {
		fileName = "document.txt"
	}

	text := textproc.Normalize(fileText)
	text, events := s.comp.RewriteText(text)

	sections := s.segmenter.Segment(text)
	events = append(events, s.comp.AppendSectionLines(text, sections)...)

	report := s.parser.Parse(text)
	report.Compensations = append(events, report.Compensations...)

	contents := s.chunker.Split(text)
	if len(contents) == 0 {
		return nil, &IngestError{Stage: StageChunk, Cause: errors.New("no text left after normalization")}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ents := s.entities.Extract(ctx, text)
	graph := entities.BuildGraph(ents)

	docID := uuid.NewString()
	doc := &domain.Document{
		ID:         docID,
		FileName:   fileName,
		UploadedAt: s.now().UTC(),
		Text:       text,
		Sections:   datatypes.NewJSONType(sections),
		ChunkCount: len(contents),
	}
	var err error
	if doc.Entities, err = marshalJSON(ents); err != nil {
		return nil, &IngestError{Stage: StagePersist, Cause: err}
	}
	if doc.TestResults, err = marshalJSON(report); err != nil {
		return nil, &IngestError{Stage: StagePersist, Cause: err}
	}
	if doc.Graph, err = marshalJSON(graph); err != nil {
		return nil, &IngestError{Stage: StagePersist, Cause: err}
	}

	vchunks := make([]vectorstore.Chunk, len(contents))
	for i, c := range contents {
		chunkID := uuid.NewString()
		doc.Chunks = append(doc.Chunks, domain.Chunk{ID: chunkID, DocumentID: docID, Index: i, Content: c})
		vchunks[i] = vectorstore.Chunk{ID: chunkID, Index: i, Content: c}
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, &IngestError{Stage: StagePersist, Cause: err}
	}

	upsert, err := s.index.UpsertChunks(ctx, docID, vchunks)
	if err != nil {
		s.rollback(docID)
		return nil, &IngestError{Stage: StageEmbed, Cause: err}
	}

	failed := upsert.FailedIndices()
	if len(failed) > 0 {
		s.logger.Warn("document indexed with missing chunks", "document_id", docID, "failed", failed)
		if err := s.repo.SetFailedChunks(ctx, docID, failed); err != nil {
			s.logger.Error("failed to record missing chunks", "document_id", docID, "error", err)
		}
	}

	s.logger.Info("document ingested",
		"document_id", docID,
		"file_name", fileName,
		"chunks", len(contents),
		"tests", len(report.Results),
		"compensations", len(report.Compensations))

	return &IngestResult{
		DocumentID:   docID,
		FileName:     fileName,
		Entities:     ents,
		TestResults:  report,
		ChunkCount:   len(contents),
		FailedChunks: failed,
	}, nil
}

// rollback removes a document whose indexing did not complete.
func (s *DocumentService) rollback(docID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.repo.Delete(ctx, docID); err != nil {
		s.logger.Error("rollback of partially ingested document failed", "document_id", docID, "error", err)
	}
}

// Query answers from the given documents, or from the most recent upload when none
// are named.
func (s *DocumentService) Query(ctx context.Context, query string, documentIDs []string) (*retrieval.Answer, error) {
	docs, err := s.resolveTargets(ctx, documentIDs)
	if err != nil {
		return nil, err
	}

	targets := make([]retrieval.Target, 0, len(docs))
	for _, d := range docs {
		targets = append(targets, s.toTarget(d))
	}
	return s.answerer.Answer(ctx, query, targets)
}

func (s *DocumentService) resolveTargets(ctx context.Context, documentIDs []string) ([]*domain.Document, error) {
	if len(documentIDs) == 0 {
		doc, err := s.repo.MostRecent(ctx)
		if errors.Is(err, document.ErrDocumentNotFound) {
			return nil, retrieval.ErrNothingToAnswer
		}
		if err != nil {
			return nil, err
		}
		return []*domain.Document{doc}, nil
	}

	docs := make([]*domain.Document, 0, len(documentIDs))
	seen := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		doc, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *DocumentService) toTarget(d *domain.Document) retrieval.Target {
	t := retrieval.Target{ID: d.ID, FileName: d.FileName, UploadedAt: d.UploadedAt}
	if len(d.Entities) > 0 {
		if err := json.Unmarshal(d.Entities, &t.Entities); err != nil {
			s.logger.Warn("stored entities unreadable", "document_id", d.ID, "error", err)
		}
	}
	if len(d.TestResults) > 0 {
		var report labs.Report
		if err := json.Unmarshal(d.TestResults, &report); err != nil {
			s.logger.Warn("stored test results unreadable", "document_id", d.ID, "error", err)
		} else {
			t.Results = report.Results
		}
	}
	return t
}

func (s *DocumentService) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	return s.repo.List(ctx)
}

func (s *DocumentService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.repo.FindByID(ctx, id)
}

// DeleteDocument removes the document's vectors, then the document and its chunks.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.index.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("document deleted", "document_id", id)
	return nil
}

func marshalJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
