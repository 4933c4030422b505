package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docqa/internal/domain"
)

func chunksOf(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{Text: t, Index: i}
	}
	return out
}

func TestExtractFactoidReturnsSingleSentence(t *testing.T) {
	x := NewOverlapExtractor()
	chunks := chunksOf(
		"France is a country in Europe. Paris is the capital of France. The Seine flows through it.",
	)
	got := x.Extract("What is the capital of France?", chunks)
	assert.Equal(t, "Paris is the capital of France.", got)
}

func TestExtractFactoidRestrictsToEntitySentences(t *testing.T) {
	x := NewOverlapExtractor()
	chunks := chunksOf(
		"Berlin is the capital of Germany. Madrid is the capital of Spain.",
	)
	got := x.Extract("What is the capital of Spain?", chunks)
	assert.Equal(t, "Madrid is the capital of Spain.", got)
}

func TestExtractPlainOverlapPicksUpToTwoSentences(t *testing.T) {
	x := NewOverlapExtractor()
	chunks := chunksOf(
		"The parser reads configuration files at startup. It caches the parsed result. Weather was nice today.",
	)
	got := x.Extract("How does the parser handle configuration files?", chunks)
	assert.Contains(t, got, "The parser reads configuration files at startup.")
	assert.NotContains(t, got, "Weather")
}

func TestExtractNoOverlapReturnsNoMatch(t *testing.T) {
	x := NewOverlapExtractor()
	chunks := chunksOf("Bananas ripen quickly in warm weather.")
	got := x.Extract("Quelle heure est-il?", chunks)
	assert.Equal(t, "No exact match found in the documents.", got)
}

func TestExtractNoChunksReturnsNoMatch(t *testing.T) {
	x := NewOverlapExtractor()
	assert.Equal(t, "No exact match found in the documents.", x.Extract("anything?", nil))
}

func TestExtractDeterministic(t *testing.T) {
	x := NewOverlapExtractor()
	chunks := chunksOf(
		"The cache evicts entries after an hour. Entries are keyed by URL.",
		"Eviction runs on a background timer. The cache size is bounded.",
	)
	first := x.Extract("How does the cache evict entries?", chunks)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, x.Extract("How does the cache evict entries?", chunks))
	}
}

func TestExtractDeduplicatesOverlappingChunks(t *testing.T) {
	x := NewOverlapExtractor()
	// chunk overlap repeats the shared sentence in both chunks
	chunks := chunksOf(
		"The gateway retries failed requests. Retries use exponential backoff.",
		"Retries use exponential backoff. A circuit breaker stops them eventually.",
	)
	got := x.Extract("How are failed requests retried by the gateway?", chunks)
	assert.Contains(t, got, "The gateway retries failed requests.")
}

func TestExtractSentenceWithoutTerminatorStillConsidered(t *testing.T) {
	x := NewOverlapExtractor()
	chunks := chunksOf("release date is March twelve")
	got := x.Extract("What is the release date?", chunks)
	assert.Equal(t, "release date is March twelve", got)
}

func TestFactoidEntityRecognition(t *testing.T) {
	x := NewOverlapExtractor()

	entity := x.factoidEntity("Who is the author of Dune?")
	assert.NotNil(t, entity)
	assert.Contains(t, entity, "dune")

	// "of" alone does not make a factoid; the relation word is required
	assert.Nil(t, x.factoidEntity("What is the point of this?"))
	assert.Nil(t, x.factoidEntity("How do I configure logging?"))
}
