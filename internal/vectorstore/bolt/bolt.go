// Package bolt implements a persistent local vector store on bbolt. Vectors
// are L2-normalized on insert so cosine distance reduces to a dot product;
// similarity is reported as 1 - distance. The database file persists every
// write, so Save and Load have nothing to do beyond reporting the path.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"sort"

	bbolt "go.etcd.io/bbolt"

	"github.com/sellbotai/sellbot/internal/vectorstore"
)

const metaBucket = "meta"

// record is the gob-serialized value for one chunk.
type record struct {
	ID     string
	Vector []float32 // unit length
	Text   string
	Meta   map[string]string
}

// Store is the bbolt-backed backend.
type Store struct {
	db         *bbolt.DB
	path       string
	bucket     []byte
	dimensions int
}

// New opens (or creates) the database file and ensures the buckets exist.
func New(_ context.Context, cfg vectorstore.Config) (vectorstore.Store, error) {
	path := cfg.Bolt.Path
	if path == "" {
		return nil, fmt.Errorf("bolt store: path is required")
	}
	bucket := cfg.Bolt.Bucket
	if bucket == "" {
		bucket = "chunks"
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("bolt store: open %s: %w", path, err)
	}

	s := &Store{
		db:         db,
		path:       path,
		bucket:     []byte(bucket),
		dimensions: cfg.Dimensions,
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(s.bucket); err != nil {
			return err
		}
		mb, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return err
		}

		// Reject reopening a database written with a different embedding
		// dimensionality.
		if existing := mb.Get([]byte("dimensions")); existing != nil {
			if got := int(binary.BigEndian.Uint64(existing)); got != cfg.Dimensions {
				return &vectorstore.ErrDimensionMismatch{Expected: got, Actual: cfg.Dimensions}
			}
			return nil
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(cfg.Dimensions))
		return mb.Put([]byte("dimensions"), buf[:])
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt store: init: %w", err)
	}
	return s, nil
}

func (s *Store) Add(_ context.Context, vectors [][]float32, texts []string, metadatas []map[string]string) ([]string, error) {
	if err := vectorstore.ValidateBatch(s.dimensions, vectors, texts, metadatas); err != nil {
		return nil, err
	}

	ids := make([]string, len(vectors))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for i := range vectors {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			id := fmt.Sprintf("vec_%d", seq)
			ids[i] = id

			rec := record{
				ID:     id,
				Vector: normalize(vectors[i]),
				Text:   texts[i],
				Meta:   metadatas[i],
			}
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
				return err
			}
			if err := b.Put([]byte(id), buf.Bytes()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt store: add: %w", err)
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

	query := normalize(vector)
	var results []vectorstore.Result

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		return b.ForEach(func(_, v []byte) error {
			var rec record
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&rec); err != nil {
				return err
			}
			// Both sides are unit vectors: cosine distance is 1 - dot.
			distance := 1 - dot(query, rec.Vector)
			results = append(results, vectorstore.Result{
				ID:         rec.ID,
				Text:       rec.Text,
				Metadata:   rec.Meta,
				Similarity: 1 - distance,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bolt store: search: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if topK < len(results) {
		results = results[:topK]
	}
	if results == nil {
		results = []vectorstore.Result{}
	}
	return results, nil
}

// Save is a no-op: bbolt persists every write transaction.
func (s *Store) Save(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf("bolt store persists automatically at %s", s.path), nil
}

// Load is a no-op: the database file was opened at construction.
func (s *Store) Load(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf("bolt store loads automatically from %s", s.path), nil
}

// Reset drops and recreates the chunk bucket. The ID sequence carries over
// so IDs are never reused across resets.
func (s *Store) Reset(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		seq := tx.Bucket(s.bucket).Sequence()
		if err := tx.DeleteBucket(s.bucket); err != nil {
			return err
		}
		b, err := tx.CreateBucket(s.bucket)
		if err != nil {
			return err
		}
		return b.SetSequence(seq)
	})
}

func (s *Store) Stats(_ context.Context) (vectorstore.Stats, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	if err != nil {
		return vectorstore.Stats{}, fmt.Errorf("bolt store: stats: %w", err)
	}
	return vectorstore.Stats{
		Provider:   "bolt",
		Vectors:    count,
		Dimensions: s.dimensions,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
