package retrieval

import (
	"context"
	"errors"
	"strings"

	"github.com/iyunix/go-medrag/internal/services/ai"
)

// tier yields candidates for a query, or none to let the next tier run.
type tier struct {
	name    string
	attempt func(ctx context.Context, query string, targets []Target) ([]Candidate, error)
}

// Orchestrator answers queries over stored documents with a tiered fallback:
// semantic search, then substring match, then the leading chunks.
type Orchestrator struct {
	searcher    Searcher
	chunks      ChunkSource
	synthesizer Synthesizer
	config      *Config
	logger      Logger
	tiers       []tier
}

func NewOrchestrator(searcher Searcher, chunks ChunkSource, synthesizer Synthesizer, config *Config, logger Logger) (*Orchestrator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, NewValidationError("config", err.Error())
	}
	if logger == nil {
		logger = nopLogger{}
	}
	o := &Orchestrator{
		searcher:    searcher,
		chunks:      chunks,
		synthesizer: synthesizer,
		config:      config,
		logger:      logger,
	}
	o.tiers = []tier{
		{name: TierVector, attempt: o.vectorTier},
		{name: TierSubstring, attempt: o.substringTier},
		{name: TierLeading, attempt: o.leadingTier},
	}
	return o, nil
}

// Retrieve runs the tiers in order and returns the first non-empty result. Tier
// failures are logged and fall through; ErrNothingToAnswer means every tier was empty.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, targets []Target) ([]Candidate, string, error) {
	if len(targets) == 0 {
		return nil, "", ErrNothingToAnswer
	}
	for _, t := range o.tiers {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		candidates, err := t.attempt(ctx, query, targets)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			o.logger.Warn("retrieval tier failed, falling back", "tier", t.name, "error", err)
			continue
		}
		if len(candidates) > 0 {
			o.logger.Info("retrieval tier selected", "tier", t.name, "candidates", len(candidates))
			return candidates, t.name, nil
		}
		o.logger.Debug("retrieval tier empty", "tier", t.name)
	}
	return nil, "", ErrNothingToAnswer
}

// Answer retrieves context, synthesizes an answer and cites the chunks used. When
// synthesis fails the answer is built from the retrieved excerpts and marked degraded.
func (o *Orchestrator) Answer(ctx context.Context, query string, targets []Target) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, NewValidationError("answer", "query is required")
	}

	candidates, tierName, err := o.Retrieve(ctx, query, targets)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		Sources: BuildSources(candidates, o.config.ExcerptLength),
		Tier:    tierName,
	}

	prompt := BuildPrompt(query, candidates, targets)
	synthCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	text, err := o.synthesizer.GetCompletion(synthCtx, o.config.ChatModel, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var se *ai.SynthesisError
		if !errors.As(err, &se) {
			se = ai.NewSynthesisError(ai.ErrTypeProvider, o.config.ChatModel, "completion failed", err)
		}
		o.logger.Error("answer synthesis failed, returning context excerpts", "error", se)
		answer.Text = degradedAnswer(answer.Sources)
		answer.Degraded = true
		return answer, nil
	}

	answer.Text = text
	return answer, nil
}

func (o *Orchestrator) vectorTier(ctx context.Context, query string, targets []Target) ([]Candidate, error) {
	matches, err := o.searcher.Search(ctx, query, targetIDs(targets), o.config.RetrievalTopK)
	if err != nil {
		return nil, NewTierError(TierVector, "semantic search failed", err)
	}
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		sim := m.Similarity
		out = append(out, Candidate{
			DocumentID: m.DocumentID,
			ChunkID:    m.ChunkID,
			ChunkIndex: m.ChunkIndex,
			Content:    m.Content,
			Similarity: &sim,
		})
	}
	return out, nil
}

func (o *Orchestrator) substringTier(ctx context.Context, query string, targets []Target) ([]Candidate, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	var out []Candidate
	for _, t := range targets {
		chunks, err := o.chunks.ListChunks(ctx, t.ID)
		if err != nil {
			return nil, NewTierError(TierSubstring, "failed to load chunks", err)
		}
		for _, c := range chunks {
			if strings.Contains(strings.ToLower(c.Content), needle) {
				out = append(out, o.fixedScore(t.ID, c.ID, c.Index, c.Content, o.config.SubstringSimilarity))
			}
		}
	}
	return out, nil
}

func (o *Orchestrator) leadingTier(ctx context.Context, _ string, targets []Target) ([]Candidate, error) {
	first := targets[0]
	chunks, err := o.chunks.ListChunks(ctx, first.ID)
	if err != nil {
		return nil, NewTierError(TierLeading, "failed to load chunks", err)
	}
	if len(chunks) > o.config.LeadingChunks {
		chunks = chunks[:o.config.LeadingChunks]
	}
	out := make([]Candidate, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, o.fixedScore(first.ID, c.ID, c.Index, c.Content, o.config.LeadingSimilarity))
	}
	return out, nil
}

func (o *Orchestrator) fixedScore(docID, chunkID string, index int, content string, score float64) Candidate {
	return Candidate{DocumentID: docID, ChunkID: chunkID, ChunkIndex: index, Content: content, Similarity: &score}
}

func targetIDs(targets []Target) []string {
	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		ids = append(ids, t.ID)
	}
	return ids
}

func degradedAnswer(sources []Source) string {
	var b strings.Builder
	b.WriteString("I couldn't generate a full answer right now. These are the most relevant passages from your document:\n")
	for _, s := range sources {
		b.WriteString("\n> ")
		b.WriteString(strings.ReplaceAll(s.Excerpt, "\n", "\n> "))
		b.WriteString("\n")
	}
	return b.String()
}
