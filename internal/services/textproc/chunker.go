package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap budget in characters. The carried-over
// seed is overlap/10 words of the previous chunk.
const DefaultChunkOverlap = 200

// Chunker splits text into sentence-aligned, overlapping chunks.
type Chunker struct {
	maxSize int
	overlap int
}

// ChunkOption configures a Chunker.
type ChunkOption func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) ChunkOption {
	return func(c *Chunker) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithOverlap sets the overlap budget in characters.
func WithOverlap(overlap int) ChunkOption {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

func NewChunker(opts ...ChunkOption) *Chunker {
	c := &Chunker{maxSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.maxSize {
		c.overlap = c.maxSize / 4
	}
	return c
}

func (c *Chunker) MaxSize() int { return c.maxSize }

// Split returns the ordered chunk contents of text. Text that already fits is returned
// as a single chunk. A sentence longer than the maximum becomes a chunk on its own.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if runeLen(text) <= c.maxSize {
		return []string{text}
	}

	var chunks []string
	current := ""
	for _, sentence := range SplitSentences(text) {
		if current != "" && runeLen(current)+1+runeLen(sentence) > c.maxSize {
			chunks = append(chunks, current)
			current = joinSpace(c.overlapSeed(current, sentence), sentence)
			continue
		}
		current = joinSpace(current, sentence)
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// overlapSeed takes the trailing overlap/10 words of prev, dropping leading words
// until the seed plus next fits in a chunk.
func (c *Chunker) overlapSeed(prev, next string) string {
	n := c.overlap / 10
	if n == 0 {
		return ""
	}
	words := strings.Fields(prev)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	budget := c.maxSize - runeLen(next) - 1
	for len(words) > 0 && runeLen(strings.Join(words, " ")) > budget {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// SplitSentences splits after '.', '!' or '?' when followed by whitespace. The
// whitespace run is consumed.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i
		for j < len(text) {
			ws, wsSize := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(ws) {
				break
			}
			j += wsSize
		}
		if j == i {
			continue
		}
		if s := strings.TrimSpace(text[start:i]); s != "" {
			sentences = append(sentences, s)
		}
		start = j
		i = j
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func joinSpace(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
