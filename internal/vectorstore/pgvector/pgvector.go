// Package pgvector implements a vector store on Postgres with the pgvector
// extension. The table and an HNSW cosine index are created at construction;
// similarity is computed in SQL as 1 - cosine distance. Postgres owns
// persistence, so Save and Load only report that.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellbotai/sellbot/internal/vectorstore"
)

// tableName guards the identifier interpolated into DDL and queries.
var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store is the Postgres/pgvector-backed backend.
type Store struct {
	pool       *pgxpool.Pool
	table      string
	dimensions int
}

// New connects to Postgres, ensures the pgvector extension, and creates the
// chunk table and index if missing.
func New(ctx context.Context, cfg vectorstore.Config) (vectorstore.Store, error) {
	table := cfg.PGVector.Table
	if table == "" {
		table = "chunks"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("pgvector store: invalid table name %q", table)
	}

	pool, err := pgxpool.New(ctx, cfg.PGVector.ConnString)
	if err != nil {
		return nil, fmt.Errorf("pgvector connect: %w", err)
	}

	s := &Store{pool: pool, table: table, dimensions: cfg.Dimensions}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			chunk_text TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'
		)`, s.table, s.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`,
			s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("pgvector schema: %w", err)
		}
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

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("pgvector add: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := vectorstore.NextIDs(len(vectors))
	sql := fmt.Sprintf(`INSERT INTO %s (id, embedding, chunk_text, metadata) VALUES ($1, $2::vector, $3, $4)`, s.table)

	for i := range vectors {
		meta, err := json.Marshal(metadatas[i])
		if err != nil {
			return nil, fmt.Errorf("pgvector add: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, ids[i], vectorLiteral(vectors[i]), texts[i], meta); err != nil {
			return nil, fmt.Errorf("pgvector add: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pgvector add: %w", err)
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

	sql := fmt.Sprintf(`SELECT id, chunk_text, metadata::text, 1 - (embedding <=> $1::vector) AS similarity
		FROM %s
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, s.table)

	rows, err := s.pool.Query(ctx, sql, vectorLiteral(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	results := []vectorstore.Result{}
	for rows.Next() {
		var (
			r        vectorstore.Result
			metaJSON string
			sim      float64
		)
		if err := rows.Scan(&r.ID, &r.Text, &metaJSON, &sim); err != nil {
			return nil, fmt.Errorf("pgvector search: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &r.Metadata); err != nil {
			return nil, fmt.Errorf("pgvector search: %w", err)
		}
		r.Similarity = float32(sim)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	return results, nil
}

// Save is a no-op: Postgres owns persistence.
func (s *Store) Save(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf("pgvector persists table %q in postgres", s.table), nil
}

// Load is a no-op: the table is live in Postgres.
func (s *Store) Load(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf("pgvector table %q is loaded from postgres", s.table), nil
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, s.table)); err != nil {
		return fmt.Errorf("pgvector reset: %w", err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (vectorstore.Stats, error) {
	var count int
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)).Scan(&count)
	if err != nil {
		return vectorstore.Stats{}, fmt.Errorf("pgvector stats: %w", err)
	}
	return vectorstore.Stats{
		Provider:   "pgvector",
		Vectors:    count,
		Dimensions: s.dimensions,
	}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// vectorLiteral renders a vector in pgvector's input format: [1,2,3].
func vectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%g", x)
	}
	sb.WriteByte(']')
	return sb.String()
}
