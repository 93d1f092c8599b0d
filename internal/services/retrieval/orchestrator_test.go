package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-medrag/internal/domain"
	"github.com/iyunix/go-medrag/internal/services/entities"
	"github.com/iyunix/go-medrag/internal/services/labs"
	"github.com/iyunix/go-medrag/internal/services/vectorstore"
)

type fakeSearcher struct {
	matches []vectorstore.Match
	err     error
	scope   []string
	limit   int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, ids []string, limit int) ([]vectorstore.Match, error) {
	f.scope, f.limit = ids, limit
	return f.matches, f.err
}

type fakeChunks map[string][]domain.Chunk

func (f fakeChunks) ListChunks(_ context.Context, id string) ([]domain.Chunk, error) {
	return f[id], nil
}

type fakeSynth struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeSynth) GetCompletion(_ context.Context, _ string, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func chunksOf(docID string, contents ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		out[i] = domain.Chunk{ID: fmt.Sprintf("%s-c%d", docID, i), DocumentID: docID, Index: i, Content: c}
	}
	return out
}

func target(id string) Target {
	return Target{ID: id, FileName: id + ".pdf", UploadedAt: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
}

func newOrchestrator(t *testing.T, s Searcher, c ChunkSource, y Synthesizer) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(s, c, y, DefaultConfig(), nil)
	require.NoError(t, err)
	return o
}

func TestAnswer_VectorTier(t *testing.T) {
	searcher := &fakeSearcher{matches: []vectorstore.Match{
		{DocumentID: "doc-1", ChunkID: "c7", Content: "LDL 62 mg/dL", Similarity: 0.8765},
	}}
	synth := &fakeSynth{reply: "Your LDL is **62 mg/dL**."}
	o := newOrchestrator(t, searcher, fakeChunks{}, synth)

	ans, err := o.Answer(context.Background(), "What is my LDL?", []Target{target("doc-1")})
	require.NoError(t, err)

	assert.Equal(t, TierVector, ans.Tier)
	assert.Equal(t, "Your LDL is **62 mg/dL**.", ans.Text)
	assert.False(t, ans.Degraded)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "c7", ans.Sources[0].ID)
	require.NotNil(t, ans.Sources[0].Similarity)
	assert.Equal(t, 0.88, *ans.Sources[0].Similarity)
	assert.Equal(t, []string{"doc-1"}, searcher.scope)
	assert.Equal(t, 5, searcher.limit)
	assert.Contains(t, synth.prompt, "LDL 62 mg/dL")
	assert.Contains(t, synth.prompt, "User question: What is my LDL?")
}

func TestAnswer_SubstringTier(t *testing.T) {
	chunks := fakeChunks{"doc-1": chunksOf("doc-1", "Intro text.", "HDL cholesterol 53 mg/dL", "Plan: diet")}
	o := newOrchestrator(t, &fakeSearcher{}, chunks, &fakeSynth{reply: "ok"})

	ans, err := o.Answer(context.Background(), "hdl", []Target{target("doc-1")})
	require.NoError(t, err)

	assert.Equal(t, TierSubstring, ans.Tier)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "doc-1-c1", ans.Sources[0].ID)
	assert.Equal(t, 0.5, *ans.Sources[0].Similarity)
}

func TestAnswer_LeadingTierForDiagnosisQuestion(t *testing.T) {
	chunks := fakeChunks{"doc-1": chunksOf("doc-1",
		"Patient: Jane Roe.", "Cholesterol 210 mg/dL.", "HbA1c 5.4 %.", "LDL 62 mg/dL.", "Plan: recheck in 6 months.")}
	o := newOrchestrator(t, &fakeSearcher{}, chunks, &fakeSynth{reply: "answer"})

	ans, err := o.Answer(context.Background(), "What is my diagnosis?", []Target{target("doc-1")})
	require.NoError(t, err)

	assert.Equal(t, TierLeading, ans.Tier)
	require.Len(t, ans.Sources, 3)
	for i, s := range ans.Sources {
		assert.Equal(t, fmt.Sprintf("doc-1-c%d", i), s.ID)
		assert.Equal(t, 0.3, *s.Similarity)
	}
}

func TestRetrieve_SearchErrorFallsThrough(t *testing.T) {
	chunks := fakeChunks{"doc-1": chunksOf("doc-1", "hs-CRP 1.2 mg/L")}
	o := newOrchestrator(t, &fakeSearcher{err: errors.New("index unavailable")}, chunks, &fakeSynth{})

	got, tierName, err := o.Retrieve(context.Background(), "crp", []Target{target("doc-1")})
	require.NoError(t, err)
	assert.Equal(t, TierSubstring, tierName)
	assert.Len(t, got, 1)
}

func TestRetrieve_NothingToAnswer(t *testing.T) {
	o := newOrchestrator(t, &fakeSearcher{}, fakeChunks{}, &fakeSynth{})

	_, _, err := o.Retrieve(context.Background(), "anything", nil)
	assert.ErrorIs(t, err, ErrNothingToAnswer)

	_, _, err = o.Retrieve(context.Background(), "anything", []Target{target("empty")})
	assert.ErrorIs(t, err, ErrNothingToAnswer)
}

func TestAnswer_DegradedOnSynthesisFailure(t *testing.T) {
	chunks := fakeChunks{"doc-1": chunksOf("doc-1", strings.Repeat("x", 250))}
	o := newOrchestrator(t, &fakeSearcher{}, chunks, &fakeSynth{err: errors.New("rate limited")})

	ans, err := o.Answer(context.Background(), "summary", []Target{target("doc-1")})
	require.NoError(t, err)
	assert.True(t, ans.Degraded)
	assert.Contains(t, ans.Text, strings.Repeat("x", 200)+"...")
	assert.Equal(t, strings.Repeat("x", 200)+"...", ans.Sources[0].Excerpt)
}

func TestAnswer_EmptyQuery(t *testing.T) {
	o := newOrchestrator(t, &fakeSearcher{}, fakeChunks{}, &fakeSynth{})
	_, err := o.Answer(context.Background(), "  ", []Target{target("doc-1")})
	var re *RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrTypeValidation, re.Type)
}

func TestAnswer_PromptCarriesAuxiliaryBlocks(t *testing.T) {
	ldl, _ := labs.FormatResult(labs.LDL, 62, labs.Between(0, 130))
	tg := target("doc-1")
	tg.Results = map[labs.TestKey]labs.TestResult{labs.LDL: ldl}
	tg.Entities = entities.Result{Categories: map[string][]string{entities.CategoryMedications: {"Atorvastatin"}}}

	searcher := &fakeSearcher{matches: []vectorstore.Match{{DocumentID: "doc-1", ChunkID: "c0", Content: "Lipid panel"}}}
	synth := &fakeSynth{reply: "ok"}
	o := newOrchestrator(t, searcher, fakeChunks{}, synth)

	_, err := o.Answer(context.Background(), "Is atorvastatin helping my bad cholesterol?", []Target{tg})
	require.NoError(t, err)

	assert.Contains(t, synth.prompt, "Extracted Test Results:")
	assert.Contains(t, synth.prompt, "LDL (Low-density lipoprotein): 62 mg/dL (Normal range: 0-130 mg/dL, Status: optimal)")
	assert.Contains(t, synth.prompt, "Relevant medical entities:")
	assert.Contains(t, synth.prompt, `"Atorvastatin"`)
	assert.Contains(t, synth.prompt, "Document name: doc-1.pdf")
}

func TestNewOrchestrator_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChatModel = ""
	_, err := NewOrchestrator(&fakeSearcher{}, fakeChunks{}, &fakeSynth{}, cfg, nil)
	assert.Error(t, err)
}
