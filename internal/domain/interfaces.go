package domain

import "context"

// Document is raw content produced by a loader. It is transient: only its
// chunks are ever persisted.
type Document struct {
	Content    string
	Title      string
	SourceKind string
}

// Chunk is a bounded piece of a document used for indexing and citation.
// Chunks are immutable once created.
type Chunk struct {
	ID         string
	DocumentID string
	Title      string
	SourceKind string
	Index      int
	Text       string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Answer is the result of a question. Sources are rendered citation lines,
// one per chunk used, in the order the chunks were used.
type Answer struct {
	Text    string
	Sources []string
}

// Turn is one question/answer pair of a chat session. Turns are advisory
// prompt context only; no single answer depends on them for correctness.
type Turn struct {
	Question string
	Answer   string
}

// Embedder converts free text into a fixed-dimension numeric vector.
// Dimension must be known without performing an embedding call, so that
// an empty index can be bootstrapped.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// LLM produces a completion for a prompt.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}
