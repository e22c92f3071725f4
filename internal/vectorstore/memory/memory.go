// Package memory implements an exact, in-process vector store. Search is a
// flat scan over all vectors using squared euclidean distance, normalized to
// similarity as 1/(1+d). Snapshots can be saved to and loaded from disk.
package memory

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sellbotai/sellbot/internal/vectorstore"
)

// Store is the in-memory backend.
type Store struct {
	mu         sync.RWMutex
	dimensions int
	vectors    [][]float32
	texts      []string
	metas      []map[string]string
	ids        []string
	nextID     uint64 // monotonic, not reset by Reset, so IDs are never reused
}

// snapshot is the gob-serialized form of the store.
type snapshot struct {
	Dimensions int
	Vectors    [][]float32
	Texts      []string
	Metas      []map[string]string
	IDs        []string
	NextID     uint64
}

// New creates an empty in-memory store for vectors of the given
// dimensionality.
func New(_ context.Context, cfg vectorstore.Config) (vectorstore.Store, error) {
	return &Store{dimensions: cfg.Dimensions}, nil
}

func (s *Store) Add(_ context.Context, vectors [][]float32, texts []string, metadatas []map[string]string) ([]string, error) {
	if err := vectorstore.ValidateBatch(s.dimensions, vectors, texts, metadatas); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(vectors))
	for i := range vectors {
		id := fmt.Sprintf("vec_%d", s.nextID)
		s.nextID++
		ids[i] = id

		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, vectors[i])
		s.texts = append(s.texts, texts[i])
		s.metas = append(s.metas, metadatas[i])
	}
	return ids, nil
}

func (s *Store) Search(_ context.Context, vector []float32, topK int) ([]vectorstore.Result, error) {
	if err := vectorstore.ValidateQuery(s.dimensions, vector); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []vectorstore.Result{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]vectorstore.Result, 0, len(s.vectors))
	for i, v := range s.vectors {
		d := squaredL2(vector, v)
		results = append(results, vectorstore.Result{
			ID:         s.ids[i],
			Text:       s.texts[i],
			Metadata:   s.metas[i],
			Similarity: 1 / (1 + d),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Save writes a snapshot to path atomically (temp file + rename).
func (s *Store) Save(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	snap := snapshot{
		Dimensions: s.dimensions,
		Vectors:    s.vectors,
		Texts:      s.texts,
		Metas:      s.metas,
		IDs:        s.ids,
		NextID:     s.nextID,
	}
	s.mu.RUnlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("save snapshot: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return fmt.Sprintf("saved %d vectors to %s", len(snap.Vectors), path), nil
}

// Load replaces the store's contents with the snapshot at path.
func (s *Store) Load(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("snapshot %s: %w", path, vectorstore.ErrNotFound)
		}
		return "", fmt.Errorf("load snapshot: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return "", fmt.Errorf("load snapshot: %w", err)
	}
	if snap.Dimensions != s.dimensions {
		return "", &vectorstore.ErrDimensionMismatch{Expected: s.dimensions, Actual: snap.Dimensions}
	}

	s.mu.Lock()
	s.vectors = snap.Vectors
	s.texts = snap.Texts
	s.metas = snap.Metas
	s.ids = snap.IDs
	if snap.NextID > s.nextID {
		s.nextID = snap.NextID
	}
	s.mu.Unlock()

	return fmt.Sprintf("loaded %d vectors from %s", len(snap.Vectors), path), nil
}

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.texts = nil
	s.metas = nil
	s.ids = nil
	return nil
}

func (s *Store) Stats(_ context.Context) (vectorstore.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.Stats{
		Provider:   "memory",
		Vectors:    len(s.vectors),
		Dimensions: s.dimensions,
	}, nil
}

func (s *Store) Close() error { return nil }

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
