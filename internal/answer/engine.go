package answer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docqa/internal/domain"
)

// Answer texts for the degraded outcomes. An empty retrieval is a normal
// result, not an error.
const (
	msgNoDocuments    = "No documents found. Ingest data first."
	msgRetrievalError = "Error retrieving relevant documents. Please try again."
)

// Retriever is the read side of the vector store the engine consumes.
// fetchK <= 0 lets the store pick its over-fetch width.
type Retriever interface {
	DiverseSearch(ctx context.Context, query string, topK, fetchK int) ([]domain.SearchResult, error)
}

// extractor is the fallback answering strategy used when no LLM is
// configured or the LLM call fails. Pluggable so the factoid heuristic can
// be swapped without touching the engine.
type extractor interface {
	Extract(question string, chunks []domain.Chunk) string
}

// Engine answers questions from the indexed chunks. Its contract is
// "always returns a result": retrieval errors, LLM errors and fallback
// misses all degrade to a displayable answer, never to a hard failure.
type Engine struct {
	retriever Retriever
	llm       domain.LLM
	extractor extractor
	topK      int
}

// NewEngine creates an answer engine. llm may be nil; the engine then
// answers extractively.
func NewEngine(retriever Retriever, llm domain.LLM, topK int) *Engine {
	if topK <= 0 {
		topK = 4
	}
	return &Engine{
		retriever: retriever,
		llm:       llm,
		extractor: NewOverlapExtractor(),
		topK:      topK,
	}
}

// Options scope and contextualize a question. DocIDs restricts retrieval to
// the given document identities; without it the answer is scoped to the
// single document of the top-ranked chunk, so unrelated sources are never
// silently blended. History is advisory prompt context only.
type Options struct {
	DocIDs  []string
	History []domain.Turn
}

// Answer runs retrieve -> synthesize -> fallback and returns the answer
// with one citation per chunk used.
func (e *Engine) Answer(ctx context.Context, question string, opts Options) domain.Answer {
	results, err := e.retriever.DiverseSearch(ctx, question, e.topK, 0)
	if err != nil {
		log.Printf("WARN: retrieval failed: %v", err)
		return domain.Answer{Text: msgRetrievalError, Sources: []string{}}
	}
	results = scope(results, opts.DocIDs)
	if len(results) == 0 {
		return domain.Answer{Text: msgNoDocuments, Sources: []string{}}
	}
	chunks := make([]domain.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}

	if e.llm != nil {
		text, err := e.llm.Complete(ctx, buildPrompt(question, chunks, opts.History))
		if err == nil {
			return domain.Answer{Text: strings.TrimSpace(text), Sources: citations(chunks)}
		}
		log.Printf("WARN: %s completion failed; falling back to extractive answer: %v", e.llm.Model(), err)
	}
	return domain.Answer{Text: e.extractor.Extract(question, chunks), Sources: citations(chunks)}
}

// scope filters results to the requested document identities, or to the
// top-ranked chunk's document when the caller did not pick any.
func scope(results []domain.SearchResult, docIDs []string) []domain.SearchResult {
	if len(results) == 0 {
		return results
	}
	allowed := make(map[string]struct{}, len(docIDs))
	if len(docIDs) > 0 {
		for _, id := range docIDs {
			allowed[id] = struct{}{}
		}
	} else {
		allowed[results[0].Chunk.DocumentID] = struct{}{}
	}
	out := results[:0]
	for _, r := range results {
		if _, ok := allowed[r.Chunk.DocumentID]; ok {
			out = append(out, r)
		}
	}
	return out
}

func buildPrompt(question string, chunks []domain.Chunk, history []domain.Turn) string {
	var b strings.Builder
	b.WriteString("Answer the question concisely using only the context below. ")
	b.WriteString("If the context does not contain the answer, say you don't know.\n\n")
	if len(history) > 0 {
		// advisory only; keep the last few turns
		start := len(history) - 3
		if start < 0 {
			start = 0
		}
		b.WriteString("Recent conversation:\n")
		for _, t := range history[start:] {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", t.Question, t.Answer)
		}
		b.WriteString("\n")
	}
	b.WriteString("Context:\n")
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(c.Text)
	}
	fmt.Fprintf(&b, "\n\nQuestion: %s\nAnswer:", question)
	return b.String()
}

// citations renders one source line per chunk, in use order.
func citations(chunks []domain.Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		title := c.Title
		if title == "" {
			title = c.SourceKind
		}
		if title == "" {
			title = "unknown"
		}
		index := "N/A"
		if c.Index >= 0 {
			index = fmt.Sprintf("%d", c.Index)
		}
		out = append(out, fmt.Sprintf("Source: %s (chunk %s)", title, index))
	}
	return out
}
