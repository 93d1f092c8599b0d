package textproc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunker(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewChunker()
		assert.Equal(t, DefaultChunkSize, c.maxSize)
		assert.Equal(t, DefaultChunkOverlap, c.overlap)
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		c := NewChunker(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, c.maxSize)
		assert.Equal(t, DefaultChunkOverlap, c.overlap)
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := NewChunker(WithChunkSize(100), WithOverlap(150))
		assert.Less(t, c.overlap, c.maxSize)
	})
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First one. Second?  Third!\nFourth 5.0 mg. tail")
	assert.Equal(t, []string{"First one.", "Second?", "Third!", "Fourth 5.0 mg.", "tail"}, got)
}

func TestSplit_SmallTextSingleChunk(t *testing.T) {
	c := NewChunker()
	assert.Equal(t, []string{"Short report."}, c.Split("  Short report.  "))
	assert.Nil(t, c.Split("   "))
}

func sentences(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("Sentence number %d reports a stable finding.", i)
	}
	return strings.Join(parts, " ")
}

func TestSplit_SizeBoundAndOverlap(t *testing.T) {
	c := NewChunker(WithChunkSize(200), WithOverlap(50))
	chunks := c.Split(sentences(30))

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, runeLen(chunk), 200, "chunk %d too long", i)
	}
	// Each later chunk starts with the last overlap/10 words of the previous one.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		seed := strings.Join(prev[len(prev)-5:], " ")
		assert.True(t, strings.HasPrefix(chunks[i], seed), "chunk %d lacks overlap seed", i)
	}
}

func TestSplit_CoversEverySentence(t *testing.T) {
	text := sentences(40)
	chunks := NewChunker(WithChunkSize(300), WithOverlap(100)).Split(text)
	joined := strings.Join(chunks, " ")

	for _, s := range SplitSentences(text) {
		assert.Contains(t, joined, s)
	}
	// Ordered coverage: the last chunk ends with the final sentence.
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "Sentence number 39 reports a stable finding."))
}

func TestSplit_OversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("word ", 60) + "end."
	text := "Intro sentence. " + long + " Outro sentence."
	chunks := NewChunker(WithChunkSize(100), WithOverlap(20)).Split(text)

	assert.Contains(t, chunks, long)
	for _, chunk := range chunks {
		if chunk != long {
			assert.LessOrEqual(t, runeLen(chunk), 100)
		}
	}
}
