// Package neo4j implements a vector store on Neo4j's native vector index.
// Chunks are nodes; the index is created with cosine similarity and its
// scores pass through untouched. The server owns persistence.
package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sellbotai/sellbot/internal/vectorstore"
)

const nodeLabel = "Chunk"

// indexName guards the identifier interpolated into the index DDL; index
// names cannot be parameterized in Cypher.
var indexName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store is the Neo4j-backed backend.
type Store struct {
	driver     neo4j.DriverWithContext
	index      string
	dimensions int
}

// New connects to Neo4j, verifies connectivity, and ensures the vector
// index exists.
func New(ctx context.Context, cfg vectorstore.Config) (vectorstore.Store, error) {
	index := cfg.Neo4j.Index
	if index == "" {
		index = "chunk_embeddings"
	}
	if !indexName.MatchString(index) {
		return nil, fmt.Errorf("neo4j store: invalid index name %q", index)
	}

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URI, neo4j.BasicAuth(cfg.Neo4j.Username, cfg.Neo4j.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}

	s := &Store{driver: driver, index: index, dimensions: cfg.Dimensions}
	if err := s.ensureIndex(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndex(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	// Index name and options cannot be query parameters.
	stmt := fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS
		FOR (c:%s) ON (c.embedding)
		OPTIONS {indexConfig: {
			`+"`vector.dimensions`"+`: %d,
			`+"`vector.similarity_function`"+`: 'cosine'
		}}`, s.index, nodeLabel, s.dimensions)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, stmt, nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4j create index %q: %w", s.index, err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, vectors [][]float32, texts []string, metadatas []map[string]string) ([]string, error) {
	if err := vectorstore.ValidateBatch(s.dimensions, vectors, texts, metadatas); err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return []string{}, nil
	}

	ids := vectorstore.NextIDs(len(vectors))
	rows := make([]map[string]any, len(vectors))
	for i := range vectors {
		// Node properties cannot hold maps; metadata is stored as JSON.
		meta, err := json.Marshal(metadatas[i])
		if err != nil {
			return nil, fmt.Errorf("neo4j add: %w", err)
		}
		rows[i] = map[string]any{
			"id":        ids[i],
			"embedding": toFloat64(vectors[i]),
			"text":      texts[i],
			"metadata":  string(meta),
		}
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			fmt.Sprintf(`UNWIND $rows AS row
				CREATE (c:%s {id: row.id, text: row.text, metadata: row.metadata})
				SET c.embedding = row.embedding`, nodeLabel),
			map[string]any{"rows": rows})
		return nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j add: %w", err)
	}
	return ids, nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.Result, error) {
	if err := vectorstore.ValidateQuery(s.dimensions, vector); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []vectorstore.Result{}, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			`CALL db.index.vector.queryNodes($index, $topK, $embedding)
			YIELD node, score
			RETURN node.id AS id, node.text AS text, node.metadata AS metadata, score`,
			map[string]any{
				"index":     s.index,
				"topK":      topK,
				"embedding": toFloat64(vector),
			})
		if err != nil {
			return nil, err
		}

		results := []vectorstore.Result{}
		for records.Next(ctx) {
			rec := records.Record()
			id, _ := rec.Get("id")
			text, _ := rec.Get("text")
			metaJSON, _ := rec.Get("metadata")
			score, _ := rec.Get("score")

			r := vectorstore.Result{
				ID:         id.(string),
				Text:       text.(string),
				Similarity: float32(score.(float64)),
			}
			if m, ok := metaJSON.(string); ok && m != "" {
				if err := json.Unmarshal([]byte(m), &r.Metadata); err != nil {
					return nil, err
				}
			}
			results = append(results, r)
		}
		return results, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j search: %w", err)
	}
	return out.([]vectorstore.Result), nil
}

// Save is a no-op: the Neo4j server owns persistence.
func (s *Store) Save(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf("neo4j persists index %q server-side", s.index), nil
}

// Load is a no-op: the index is live on the server.
func (s *Store) Load(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf("neo4j index %q is loaded server-side", s.index), nil
}

func (s *Store) Reset(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, fmt.Sprintf(`MATCH (c:%s) DETACH DELETE c`, nodeLabel), nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4j reset: %w", err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (vectorstore.Stats, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, fmt.Sprintf(`MATCH (c:%s) RETURN count(c) AS n`, nodeLabel), nil)
		if err != nil {
			return nil, err
		}
		rec, err := records.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _ := rec.Get("n")
		return int(n.(int64)), nil
	})
	if err != nil {
		return vectorstore.Stats{}, fmt.Errorf("neo4j stats: %w", err)
	}
	return vectorstore.Stats{
		Provider:   "neo4j",
		Vectors:    out.(int),
		Dimensions: s.dimensions,
	}, nil
}

func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

// toFloat64 converts for the driver; Neo4j float properties are float64.
func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
