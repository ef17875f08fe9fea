package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Chunk is one indexed text segment together with its attributes. The
// ingestion pipeline tags every chunk with the source filename and the
// system-assigned contract id.
type Chunk struct {
	Text     string
	Metadata map[string]string
}

// Metadata keys attached to chunks at indexing time.
const (
	MetaSource     = "source"
	MetaContractID = "contract_id"
)

// VectorIndex stores chunk embeddings and supports similarity search with
// an optional exact-match attribute filter.
type VectorIndex interface {
	// Index embeds and inserts the given chunks. It returns false without
	// error when the input is empty.
	Index(ctx context.Context, chunks []Chunk) (bool, error)
	// Search returns up to k chunks nearest to the query, restricted to
	// chunks whose metadata matches every key/value in filter. A nil filter
	// matches everything. Searching a never-populated index returns no
	// results and makes no embedding calls.
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]Chunk, error)
	// IsEmpty reports whether Index has never succeeded with a non-empty
	// chunk set.
	IsEmpty() bool
	// Clear resets the index to empty. Used for test isolation, not on the
	// request-serving path.
	Clear(ctx context.Context) error
}

// MemoryIndex is a process-local vector index using brute-force cosine
// similarity. Corpus sizes are small (dozens of contracts), so a single flat
// structure with query-time filtering beats per-document sub-indexes.
type MemoryIndex struct {
	embedder Embedder

	mu      sync.RWMutex
	vectors [][]float64
	chunks  []Chunk
}

func NewMemoryIndex(embedder Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

func (m *MemoryIndex) Index(ctx context.Context, chunks []Chunk) (bool, error) {
	if len(chunks) == 0 {
		return false, nil
	}

	// Embed outside the lock; network calls must not block readers.
	vectors := make([][]float64, len(chunks))
	for i, chunk := range chunks {
		vec, err := m.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return false, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		vectors[i] = vec
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = append(m.vectors, vectors...)
	m.chunks = append(m.chunks, chunks...)
	return true, nil
}

func (m *MemoryIndex) Search(ctx context.Context, query string, k int, filter map[string]string) ([]Chunk, error) {
	if m.IsEmpty() {
		return nil, nil
	}
	if k <= 0 {
		return nil, nil
	}

	queryVec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	for i := range m.chunks {
		if !matchesFilter(m.chunks[i].Metadata, filter) {
			continue
		}
		candidates = append(candidates, scored{i, cosine(m.vectors[i], queryVec)})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	results := make([]Chunk, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, m.chunks[c.idx])
	}
	return results, nil
}

func (m *MemoryIndex) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks) == 0
}

func (m *MemoryIndex) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = nil
	m.chunks = nil
	return nil
}

// matchesFilter reports whether metadata satisfies every key/value pair in
// filter (exact-match conjunction).
func matchesFilter(metadata, filter map[string]string) bool {
	for key, want := range filter {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
