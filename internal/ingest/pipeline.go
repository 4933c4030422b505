package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"docqa/internal/chunker"
	"docqa/internal/domain"
)

// Store is the writer side of the vector store the pipeline feeds.
type Store interface {
	Add(ctx context.Context, chunks []domain.Chunk) error
}

// Pipeline turns raw document text into indexed chunks.
type Pipeline struct {
	splitter *chunker.Splitter
	store    Store
}

// New creates an ingestion pipeline writing to store.
func New(splitter *chunker.Splitter, store Store) *Pipeline {
	return &Pipeline{splitter: splitter, store: store}
}

// Ingest splits text, attaches metadata and writes the chunks to the store.
// It returns the document id actually used and the number of chunks
// ingested, so callers record the stored identity instead of re-deriving
// it. Empty input yields 0 with a warning log, not an error; an embedding
// or store failure aborts the whole ingestion with an error, so a partial
// write is never reported as success.
//
// docID may be empty; it is then derived from the source kind and title
// (or generated for untitled pasted text).
func (p *Pipeline) Ingest(ctx context.Context, title, text, sourceKind, docID string) (string, int, error) {
	if docID == "" {
		docID = DeriveDocID(sourceKind, title)
	}
	pieces := p.splitter.Split(text)
	if len(pieces) == 0 {
		log.Printf("WARN: no content extracted for %q; skipping ingestion", title)
		return docID, 0, nil
	}
	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: docID,
			Title:      title,
			SourceKind: sourceKind,
			Index:      i,
			Text:       piece,
		}
	}
	if err := p.store.Add(ctx, chunks); err != nil {
		return "", 0, fmt.Errorf("ingest %q: %w", title, err)
	}
	log.Printf("ingested %d chunks from %q", len(chunks), title)
	return docID, len(chunks), nil
}

// DeriveDocID builds a stable document identity from the source kind and
// title. Untitled sources get a timestamped id with a random suffix, so
// repeated untitled pastes stay distinct documents even within one second.
func DeriveDocID(sourceKind, title string) string {
	if title == "" {
		return fmt.Sprintf("%s:%s-%s", sourceKind, time.Now().Format("20060102150405"), uuid.NewString()[:8])
	}
	return fmt.Sprintf("%s:%s", sourceKind, title)
}
