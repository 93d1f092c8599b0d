package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)

	a, b := []float32{0.3, -0.2, 0.9}, []float32{0.1, 0.5, -0.4}
	assert.Equal(t, CosineSimilarity(a, b), CosineSimilarity(b, a))
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestRankTopK_StableDescending(t *testing.T) {
	matches := []Match{
		{ChunkID: "a", Similarity: 0.2},
		{ChunkID: "b", Similarity: 0.9},
		{ChunkID: "c", Similarity: 0.2},
		{ChunkID: "d", Similarity: 0.5},
	}
	got := rankTopK(matches, 3)
	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.ChunkID
	}
	assert.Equal(t, []string{"b", "d", "a"}, ids)
}

func TestVectorSerializationRoundTrip(t *testing.T) {
	v := []float32{0.5, -1.25, 3e-7}
	assert.Equal(t, v, deserializeVector(serializeVector(v)))
	assert.Len(t, serializeVector(v), 12)
}
