package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"docqa/internal/domain"
)

// ErrEmbedderMismatch reports that the persisted store was built by a
// different embedding backend than the one configured now. Mixing backends
// would silently corrupt the index, so the store refuses instead.
var ErrEmbedderMismatch = errors.New("vector store was built with a different embedding backend")

// mmrLambda balances relevance against redundancy in diverse search.
const mmrLambda = 0.7

// Store owns the process-wide vector index: an in-memory brute-force cosine
// index plus a durable SQLite snapshot. Entries are append-only; there is no
// update or delete. Writers serialize on the mutex and persist inside the
// same critical section; readers work on a shared-lock point-in-time view.
type Store struct {
	mu       sync.RWMutex
	embedder domain.Embedder
	db       *persister
	chunks   []domain.Chunk
	vectors  [][]float64

	persistFailures int
}

// Open returns a store backed by the SQLite database at path, loading any
// existing snapshot. A load failure is logged and treated as "no existing
// store"; only an embedding-backend mismatch with existing entries is
// surfaced, as ErrEmbedderMismatch.
func Open(path string, embedder domain.Embedder) (*Store, error) {
	s := &Store{embedder: embedder}
	db, err := openPersister(path)
	if err != nil {
		log.Printf("WARN: vector store at %s unavailable, starting fresh without persistence: %v", path, err)
		return s, nil
	}
	s.db = db
	tag, dim, chunks, vectors, err := db.load()
	if err != nil {
		log.Printf("WARN: failed to load vector store from %s, starting fresh: %v", path, err)
		return s, nil
	}
	if len(chunks) > 0 && (tag != embedder.Name() || dim != embedder.Dimension()) {
		return nil, fmt.Errorf("store holds %q (dim %d), configured %q (dim %d): %w",
			tag, dim, embedder.Name(), embedder.Dimension(), ErrEmbedderMismatch)
	}
	s.chunks = chunks
	s.vectors = vectors
	return s, nil
}

// Close releases the durable snapshot handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.close()
}

// Size returns the number of indexed chunks.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// PersistFailures returns how many snapshot writes have failed since open.
// The in-memory index stays authoritative regardless.
func (s *Store) PersistFailures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistFailures
}

// Add embeds the chunks and appends them to the index. An empty slice is a
// no-op. The snapshot write is best-effort: on failure the mutation stands
// and the failure is logged and counted.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	for i, v := range vectors {
		if len(v) != s.embedder.Dimension() {
			return fmt.Errorf("chunk %d: vector dimension %d, want %d: %w",
				i, len(v), s.embedder.Dimension(), ErrEmbedderMismatch)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	if s.db == nil {
		return nil
	}
	if err := s.db.save(s.embedder.Name(), s.embedder.Dimension(), chunks, vectors); err != nil {
		s.persistFailures++
		log.Printf("WARN: vector store persistence failed (in-memory index remains authoritative): %v", err)
	}
	return nil
}

// Search returns the topK chunks most similar to the query, best first.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idxs, scores := s.rank(vec)
	if topK <= 0 {
		topK = 5
	}
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[i]
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results, nil
}

// DiverseSearch over-fetches fetchK nearest neighbours and re-ranks them
// with maximal marginal relevance, so the topK set is not dominated by
// near-duplicate chunks. fetchK is raised to max(10, 5*topK) when smaller.
func (s *Store) DiverseSearch(ctx context.Context, query string, topK, fetchK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	if min := maxInt(10, 5*topK); fetchK < min {
		fetchK = min
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idxs, scores := s.rank(vec)
	if fetchK > len(idxs) {
		fetchK = len(idxs)
	}
	candidates := idxs[:fetchK]
	selected := s.selectMMR(candidates, scores, topK)
	results := make([]domain.SearchResult, 0, len(selected))
	for _, j := range selected {
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results, nil
}

// rank scores every stored vector against the query vector and returns the
// indexes sorted best-first. Ties break on insertion order so results are
// deterministic. Caller must hold at least a read lock.
func (s *Store) rank(query []float64) ([]int, []float64) {
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = cosine(s.vectors[i], query)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	return idxs, scores
}

// selectMMR picks topK of the candidates, trading query relevance against
// similarity to the already-selected set: lambda*rel - (1-lambda)*maxSim.
// Caller must hold at least a read lock.
func (s *Store) selectMMR(candidates []int, scores []float64, topK int) []int {
	if len(candidates) == 0 {
		return nil
	}
	if topK > len(candidates) {
		topK = len(candidates)
	}
	selected := make([]int, 0, topK)
	remaining := append([]int(nil), candidates...)
	// best-scoring candidate always goes first
	selected = append(selected, remaining[0])
	remaining = remaining[1:]
	for len(selected) < topK && len(remaining) > 0 {
		bestPos := 0
		bestVal := math.Inf(-1)
		for pos, cand := range remaining {
			maxSim := math.Inf(-1)
			for _, sel := range selected {
				if sim := cosine(s.vectors[cand], s.vectors[sel]); sim > maxSim {
					maxSim = sim
				}
			}
			val := mmrLambda*scores[cand] - (1-mmrLambda)*maxSim
			if val > bestVal {
				bestVal = val
				bestPos = pos
			}
		}
		selected = append(selected, remaining[bestPos])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return selected
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
