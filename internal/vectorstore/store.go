// Package vectorstore defines the vector store abstraction and its factory.
// Concrete backends live in subpackages (memory, bolt, qdrant, pgvector,
// neo4j) and are registered by the caller.
//
// Backends report relevance as similarity scores, higher is better. Each
// backend normalizes its native distance into a similarity before returning
// results, so callers can apply one threshold regardless of the backend.
// Scores are comparable within a backend, not across backends.
package vectorstore

import "context"

// Result is a single search hit. Results are returned in descending
// similarity order.
type Result struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata"`
	Similarity float32           `json:"similarity"`
}

// Stats describes the current state of a store.
type Stats struct {
	Provider   string `json:"provider"`
	Vectors    int    `json:"vectors"`
	Dimensions int    `json:"dimensions"`
}

// Store is the interface all vector store backends implement.
type Store interface {
	// Add inserts a batch of vectors with their chunk texts and metadata,
	// returning the assigned IDs in input order. The three slices must have
	// equal length and every vector must match the store's dimensionality.
	Add(ctx context.Context, vectors [][]float32, texts []string, metadatas []map[string]string) ([]string, error)
	// Search returns up to topK nearest entries by descending similarity.
	// An empty store yields an empty result, not an error.
	Search(ctx context.Context, vector []float32, topK int) ([]Result, error)
	// Save persists the store to path where that is meaningful. Backends
	// that persist automatically return a message saying where the data
	// already lives.
	Save(ctx context.Context, path string) (string, error)
	// Load restores the store from path where that is meaningful. A missing
	// snapshot is ErrNotFound.
	Load(ctx context.Context, path string) (string, error)
	// Reset removes all stored vectors.
	Reset(ctx context.Context) error
	// Stats reports the vector count and dimensionality.
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// ValidateBatch checks the Add contract: equal slice lengths and uniform
// dimensionality. Shared by all backends so dimension errors surface before
// any backend call.
func ValidateBatch(dimensions int, vectors [][]float32, texts []string, metadatas []map[string]string) error {
	if len(vectors) != len(texts) || len(vectors) != len(metadatas) {
		return &ErrCountMismatch{Vectors: len(vectors), Texts: len(texts), Metadatas: len(metadatas)}
	}
	for _, v := range vectors {
		if len(v) != dimensions {
			return &ErrDimensionMismatch{Expected: dimensions, Actual: len(v)}
		}
	}
	return nil
}

// ValidateQuery checks a search vector's dimensionality.
func ValidateQuery(dimensions int, vector []float32) error {
	if len(vector) != dimensions {
		return &ErrDimensionMismatch{Expected: dimensions, Actual: len(vector)}
	}
	return nil
}
