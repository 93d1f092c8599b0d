package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-medrag/internal/domain"
	"github.com/iyunix/go-medrag/internal/repository/document"
	"github.com/iyunix/go-medrag/internal/services"
	"github.com/iyunix/go-medrag/internal/services/extract"
	"github.com/iyunix/go-medrag/internal/services/labs"
	"github.com/iyunix/go-medrag/internal/services/retrieval"
	"github.com/iyunix/go-medrag/internal/services/vectorstore"
)

type mockPipeline struct {
	ingested  string
	queryIDs  []string
	answer    *retrieval.Answer
	queryErr  error
	documents []domain.DocumentSummary
	deleted   string
}

func (m *mockPipeline) Ingest(_ context.Context, text, name string) (*services.IngestResult, error) {
	m.ingested = text
	return &services.IngestResult{
		DocumentID: "doc-1",
		FileName:   name,
		ChunkCount: 2,
		TestResults: &labs.Report{Results: map[labs.TestKey]labs.TestResult{
			labs.Cholesterol: {Key: labs.Cholesterol, Name: "Total Cholesterol", Value: 210, Unit: "mg/dL", Status: labs.StatusBorderline},
		}},
	}, nil
}

func (m *mockPipeline) Query(_ context.Context, _ string, ids []string) (*retrieval.Answer, error) {
	m.queryIDs = ids
	return m.answer, m.queryErr
}

func (m *mockPipeline) ListDocuments(context.Context) ([]domain.DocumentSummary, error) {
	return m.documents, nil
}

func (m *mockPipeline) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	return nil, document.ErrDocumentNotFound
}

func (m *mockPipeline) DeleteDocument(_ context.Context, id string) error {
	m.deleted = id
	return nil
}

type mockSearcher struct {
	calls int
	err   error
}

func (m *mockSearcher) Search(context.Context, string, []string, int) ([]vectorstore.Match, error) {
	m.calls++
	return []vectorstore.Match{{DocumentID: "doc-1"}}, m.err
}

func setupTestServices(p *mockPipeline, s *mockSearcher) func() {
	pipeline, extractor = p, extract.NewChain(extract.NewPlainText())
	if s != nil {
		vectorIndex = s
	}
	return func() {
		pipeline, extractor, vectorIndex = nil, nil, nil
		queryDocs, queryJSON, ingestJSON, ingestName, documentsJSON = nil, false, false, "", false
		benchRuns, benchTopK = 5, 10
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestIngestCmd(t *testing.T) {
	p := &mockPipeline{}
	defer setupTestServices(p, nil)()

	path := filepath.Join(t.TempDir(), "lipids.txt")
	require.NoError(t, os.WriteFile(path, []byte("Cholesterol 210 mg/dL"), 0o600))

	out, err := execute(t, "ingest", path)
	require.NoError(t, err)

	assert.Equal(t, "Cholesterol 210 mg/dL", p.ingested)
	assert.Contains(t, out, "Document doc-1 (lipids.txt)")
	assert.Contains(t, out, "Total Cholesterol: 210 mg/dL (borderline)")
}

func TestIngestCmd_MissingFile(t *testing.T) {
	defer setupTestServices(&mockPipeline{}, nil)()

	_, err := execute(t, "ingest", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestIngestCmd_RequiresExactlyOneArg(t *testing.T) {
	defer setupTestServices(&mockPipeline{}, nil)()

	_, err := execute(t, "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd(t *testing.T) {
	sim := 0.5
	p := &mockPipeline{answer: &retrieval.Answer{
		Text:    "Your cholesterol is 210 mg/dL.",
		Tier:    retrieval.TierSubstring,
		Sources: []retrieval.Source{{DocumentID: "doc-1", Excerpt: "Cholesterol 210", Similarity: &sim}},
	}}
	defer setupTestServices(p, nil)()

	out, err := execute(t, "query", "--doc", "doc-1", "what", "is", "my", "cholesterol?")
	require.NoError(t, err)

	assert.Equal(t, []string{"doc-1"}, p.queryIDs)
	assert.Contains(t, out, "Your cholesterol is 210 mg/dL.")
	assert.Contains(t, out, "[1] doc-1 (0.50) Cholesterol 210")
}

func TestQueryCmd_NothingToAnswer(t *testing.T) {
	defer setupTestServices(&mockPipeline{queryErr: retrieval.ErrNothingToAnswer}, nil)()

	out, err := execute(t, "query", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "No relevant content found.")
}

func TestDocumentsCmd(t *testing.T) {
	p := &mockPipeline{documents: []domain.DocumentSummary{
		{ID: "doc-1", FileName: "labs.pdf", UploadedAt: time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)},
	}}
	defer setupTestServices(p, nil)()

	out, err := execute(t, "documents")
	require.NoError(t, err)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "labs.pdf")

	_, err = execute(t, "documents", "delete", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", p.deleted)

	_, err = execute(t, "documents", "show", "doc-9")
	assert.ErrorIs(t, err, document.ErrDocumentNotFound)
}

func TestBenchCmd(t *testing.T) {
	s := &mockSearcher{}
	defer setupTestServices(&mockPipeline{}, s)()

	out, err := execute(t, "bench", "--runs", "3", "metoprolol dosage")
	require.NoError(t, err)
	assert.Equal(t, 3, s.calls)
	assert.Contains(t, out, "Average latency over 3 runs")
}

func TestBenchCmd_AllRunsFail(t *testing.T) {
	s := &mockSearcher{err: errors.New("index unreachable")}
	defer setupTestServices(&mockPipeline{}, s)()

	_, err := execute(t, "bench", "--runs", "2", "q")
	assert.Error(t, err)
}
