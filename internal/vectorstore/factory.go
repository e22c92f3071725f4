package vectorstore

import (
	"context"
	"fmt"
)

// Config holds all configuration needed to create any vector store backend.
// Dimensions comes from the embedding provider and is fixed for the life of
// the store.
type Config struct {
	Provider   string // "memory", "bolt", "qdrant", "pgvector", "neo4j"
	Dimensions int

	Memory   MemoryConfig
	Bolt     BoltConfig
	Qdrant   QdrantConfig
	PGVector PGVectorConfig
	Neo4j    Neo4jConfig
}

// MemoryConfig configures the in-memory backend.
type MemoryConfig struct {
	PersistPath string // default location for Save/Load snapshots
}

// BoltConfig configures the bbolt file backend.
type BoltConfig struct {
	Path   string
	Bucket string
}

// QdrantConfig configures the Qdrant backend.
type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
}

// PGVectorConfig configures the Postgres/pgvector backend.
type PGVectorConfig struct {
	ConnString string
	Table      string
}

// Neo4jConfig configures the Neo4j native vector index backend.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Index    string
}

// Constructor builds a Store from config. Construction may touch the
// backend (ensure collections, tables, indexes), hence the context.
type Constructor func(ctx context.Context, cfg Config) (Store, error)

// Factory creates Store instances from config.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory creates an empty factory. Backends register themselves via
// Register before Create is called.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register adds a store constructor under the given name.
func (f *Factory) Register(name string, ctor Constructor) {
	f.constructors[name] = ctor
}

// Create builds a Store from config. Unknown provider names are a
// configuration error listing the registered backends.
func (f *Factory) Create(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("vectorstore: dimensions must be positive, got %d", cfg.Dimensions)
	}
	ctor, ok := f.constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown vector store provider %q — registered: %v", cfg.Provider, f.names())
	}
	return ctor(ctx, cfg)
}

func (f *Factory) names() []string {
	var out []string
	for k := range f.constructors {
		out = append(out, k)
	}
	return out
}
