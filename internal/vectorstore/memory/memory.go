package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"docqa/internal/domain"
)

// Storage is a simple in-memory vector index using brute-force inner product.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
}

var _ domain.VectorIndex = (*Storage)(nil)

// NewStorage returns an empty index. Reset must be called before Add.
func NewStorage() *Storage { return &Storage{} }

// Reset drops all vectors and fixes the dimension of future vectors.
func (s *Storage) Reset(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidConfig, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	return nil
}

// Add appends vectors. Either all vectors are added or none.
func (s *Storage) Add(_ context.Context, vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v), s.dimension)
		}
	}
	for _, v := range vectors {
		s.vectors = append(s.vectors, append([]float32(nil), v...))
	}
	return nil
}

// Truncate drops every vector at position n or later.
func (s *Storage) Truncate(_ context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n > len(s.vectors) {
		return fmt.Errorf("truncate to %d: index holds %d vectors", n, len(s.vectors))
	}
	s.vectors = s.vectors[:n]
	return nil
}

// Len returns the number of stored vectors.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Search returns the k highest inner-product matches in descending score
// order. Equal scores keep insertion order.
func (s *Storage) Search(_ context.Context, query []float32, k int) ([]domain.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, want %d", domain.ErrDimensionMismatch, len(query), s.dimension)
	}
	if k <= 0 {
		return nil, nil
	}
	hits := make([]domain.Hit, len(s.vectors))
	for i := range s.vectors {
		hits[i] = domain.Hit{Position: i, Score: dot(s.vectors[i], query)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
