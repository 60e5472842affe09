package knowledge

// Chunk is one section-tagged slice of the policy document.
// Content is non-empty after trimming; Section carries the numbered
// header label (e.g. "4. Retur- och återbetalningspolicy") and Heading
// its descriptive tail.
type Chunk struct {
	Content  string
	Section  string
	Heading  string
	Source   string
	Language string
}

// IndexedChunk is a Chunk together with its embedding vector, ready for
// storage. Created once at ingestion and never mutated afterwards.
type IndexedChunk struct {
	Chunk
	Embedding []float32
}

// Retrieved is one similarity-search hit. Result lists are ordered by
// descending Similarity; the score is only guaranteed to be monotonic
// for ranking, not to fall in a fixed range.
type Retrieved struct {
	ID         int64
	Content    string
	Section    string
	Heading    string
	Source     string
	Similarity float32
}
