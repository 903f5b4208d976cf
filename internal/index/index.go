// Package index stores manual chunks in a named collection per document and
// answers similarity queries against them. Two backends implement the same
// contract: a Chroma-style REST store (primary) and an in-process TF-IDF
// matrix (zero external dependency).
package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"manualhub/internal/chunk"
)

// Embedder converts text into a vector. The production implementation is the
// process-wide OpenAI-compatible client handle constructed once at bootstrap.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CollectionMeta is the metadata written alongside a collection at creation.
type CollectionMeta struct {
	CreatedAt string `json:"created_at"`
	DeviceID  string `json:"device_id,omitempty"`
	Source    string `json:"source,omitempty"`
}

// CollectionInfo describes one stored collection for listings.
type CollectionInfo struct {
	Name       string    `json:"collection_name"`
	PDFName    string    `json:"pdf_name"`
	CreatedAt  time.Time `json:"created_at"`
	ChunkCount int       `json:"chunk_count"`
}

// Result is one retrieved chunk with its ranking scores. Distance is the
// backend's raw measure; Relevance is normalized similarity in [0,1].
type Result struct {
	Chunk      chunk.Chunk `json:"chunk"`
	ChunkIndex int         `json:"chunk_index"`
	Distance   float64     `json:"distance"`
	Relevance  float64     `json:"relevance"`
}

// Backend is the store contract both index modes satisfy. Exists never
// reports backend "not found" as an error.
type Backend interface {
	EnsureCollection(ctx context.Context, name string, meta CollectionMeta) error
	Exists(ctx context.Context, name string) bool
	List(ctx context.Context) ([]CollectionInfo, error)
	Add(ctx context.Context, name string, chunks []chunk.Chunk) (int, error)
	Query(ctx context.Context, name, query string, topK int) ([]Result, error)
	QueryScoped(ctx context.Context, deviceID, query string, topK int) ([]Result, error)
	Delete(ctx context.Context, name string) error
}

// Service wraps a backend with idempotent stores and per-collection write
// serialization: at most one in-flight write per collection.
type Service struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(backend Backend) *Service {
	return &Service{
		backend: backend,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Store embeds and persists chunks under the named collection. Re-storing
// into an existing collection is a no-op returning 0 (idempotent re-upload).
func (s *Service) Store(ctx context.Context, name string, meta CollectionMeta, chunks []chunk.Chunk) (int, error) {
	lock := s.collectionLock(name)
	lock.Lock()
	defer lock.Unlock()

	if s.backend.Exists(ctx, name) {
		return 0, nil
	}
	if err := s.backend.EnsureCollection(ctx, name, meta); err != nil {
		return 0, fmt.Errorf("create collection %s failed: %w", name, err)
	}
	stored, err := s.backend.Add(ctx, name, chunks)
	if err != nil {
		// Never leave a half-populated collection looking fully stored.
		_ = s.backend.Delete(ctx, name)
		return 0, fmt.Errorf("store chunks in %s failed: %w", name, err)
	}
	return stored, nil
}

// Query returns the topK most similar chunks, descending by relevance with
// the original chunk sequence index as a stable tiebreak.
func (s *Service) Query(ctx context.Context, name, query string, topK int) ([]Result, error) {
	results, err := s.backend.Query(ctx, name, query, topK)
	if err != nil {
		return nil, fmt.Errorf("query collection %s failed: %w", name, err)
	}
	rankResults(results)
	return results, nil
}

// QueryScoped ranks across every collection carrying the given device scope
// tag; an empty tag means all collections.
func (s *Service) QueryScoped(ctx context.Context, deviceID, query string, topK int) ([]Result, error) {
	results, err := s.backend.QueryScoped(ctx, deviceID, query, topK)
	if err != nil {
		return nil, fmt.Errorf("scoped query failed: %w", err)
	}
	rankResults(results)
	return results, nil
}

func (s *Service) List(ctx context.Context) ([]CollectionInfo, error) {
	return s.backend.List(ctx)
}

func (s *Service) Exists(ctx context.Context, name string) bool {
	return s.backend.Exists(ctx, name)
}

func (s *Service) Delete(ctx context.Context, name string) error {
	lock := s.collectionLock(name)
	lock.Lock()
	defer lock.Unlock()
	return s.backend.Delete(ctx, name)
}

func (s *Service) collectionLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock
}

// rankResults orders by descending relevance; ties keep insertion order so
// downstream citations are deterministic.
func rankResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
}
