package retrieval

// BuildSources turns the selected candidates into citations with truncated excerpts
// and scores rounded to two decimals.
func BuildSources(candidates []Candidate, excerptLength int) []Source {
	sources := make([]Source, 0, len(candidates))
	for _, c := range candidates {
		excerpt := TruncateText(c.Content, excerptLength)
		if excerpt != c.Content {
			excerpt += "..."
		}
		var sim *float64
		if c.Similarity != nil {
			r := roundScore(*c.Similarity)
			sim = &r
		}
		sources = append(sources, Source{
			ID:         c.ChunkID,
			DocumentID: c.DocumentID,
			Excerpt:    excerpt,
			Similarity: sim,
		})
	}
	return sources
}
