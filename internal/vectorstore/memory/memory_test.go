package memory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sellbotai/sellbot/internal/vectorstore"
)

func newStore(t *testing.T, dims int) vectorstore.Store {
	t.Helper()
	s, err := New(context.Background(), vectorstore.Config{Provider: "memory", Dimensions: dims})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestAdd_AssignsSequentialIDs(t *testing.T) {
	s := newStore(t, 2)
	ctx := context.Background()

	ids, err := s.Add(ctx,
		[][]float32{{1, 0}, {0, 1}},
		[]string{"first", "second"},
		[]map[string]string{{}, {}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(ids) != 2 || ids[0] != "vec_0" || ids[1] != "vec_1" {
		t.Errorf("ids = %v", ids)
	}
}

func TestAdd_DimensionMismatch(t *testing.T) {
	s := newStore(t, 3)
	_, err := s.Add(context.Background(),
		[][]float32{{1, 0}},
		[]string{"short"},
		[]map[string]string{{}})

	var dm *vectorstore.ErrDimensionMismatch
	if !errors.As(err, &dm) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if dm.Expected != 3 || dm.Actual != 2 {
		t.Errorf("mismatch fields = {%d %d}", dm.Expected, dm.Actual)
	}
}

func TestSearch_OrderAndSimilarity(t *testing.T) {
	s := newStore(t, 2)
	ctx := context.Background()

	s.Add(ctx,
		[][]float32{{0, 0}, {3, 4}, {1, 0}},
		[]string{"exact", "far", "near"},
		[]map[string]string{{}, {}, {}})

	results, err := s.Search(ctx, []float32{0, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	// sim = 1/(1+d) with squared euclidean d: exact → 1, near → 0.5, far → 1/26.
	if results[0].Text != "exact" || results[0].Similarity != 1 {
		t.Errorf("first result = %q sim %v", results[0].Text, results[0].Similarity)
	}
	if results[1].Text != "near" || results[1].Similarity != 0.5 {
		t.Errorf("second result = %q sim %v", results[1].Text, results[1].Similarity)
	}
	if results[2].Text != "far" {
		t.Errorf("third result = %q", results[2].Text)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Error("results not in descending similarity order")
		}
	}
}

func TestSearch_EmptyStore(t *testing.T) {
	s := newStore(t, 2)
	results, err := s.Search(context.Background(), []float32{1, 2}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}

func TestSearch_ClampsTopK(t *testing.T) {
	s := newStore(t, 1)
	ctx := context.Background()
	s.Add(ctx, [][]float32{{1}, {2}}, []string{"a", "b"}, []map[string]string{{}, {}})

	results, err := s.Search(ctx, []float32{1}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	s := newStore(t, 2)
	var dm *vectorstore.ErrDimensionMismatch
	if _, err := s.Search(context.Background(), []float32{1, 2, 3}, 5); !errors.As(err, &dm) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestReset_KeepsIDCounter(t *testing.T) {
	s := newStore(t, 1)
	ctx := context.Background()

	s.Add(ctx, [][]float32{{1}}, []string{"a"}, []map[string]string{{}})
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	stats, _ := s.Stats(ctx)
	if stats.Vectors != 0 {
		t.Errorf("vectors after reset = %d", stats.Vectors)
	}

	ids, err := s.Add(ctx, [][]float32{{2}}, []string{"b"}, []map[string]string{{}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ids[0] != "vec_1" {
		t.Errorf("id after reset = %q, want vec_1 (counter survives reset)", ids[0])
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kb.gob")

	s := newStore(t, 2)
	s.Add(ctx,
		[][]float32{{1, 2}, {3, 4}},
		[]string{"alpha", "beta"},
		[]map[string]string{{"filename": "a.txt"}, {"filename": "b.txt"}})

	if _, err := s.Save(ctx, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := newStore(t, 2)
	if _, err := restored.Load(ctx, path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	results, err := restored.Search(ctx, []float32{1, 2}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Text != "alpha" {
		t.Fatalf("unexpected results: %v", results)
	}
	if results[0].Metadata["filename"] != "a.txt" {
		t.Errorf("metadata lost in round trip: %v", results[0].Metadata)
	}

	// IDs assigned after a load must not collide with restored ones.
	ids, _ := restored.Add(ctx, [][]float32{{5, 6}}, []string{"gamma"}, []map[string]string{{}})
	if ids[0] != "vec_2" {
		t.Errorf("id after load = %q, want vec_2", ids[0])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := newStore(t, 2)
	_, err := s.Load(context.Background(), filepath.Join(t.TempDir(), "absent.gob"))
	if !errors.Is(err, vectorstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kb.gob")

	s := newStore(t, 2)
	s.Add(ctx, [][]float32{{1, 2}}, []string{"a"}, []map[string]string{{}})
	s.Save(ctx, path)

	other := newStore(t, 4)
	var dm *vectorstore.ErrDimensionMismatch
	if _, err := other.Load(ctx, path); !errors.As(err, &dm) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
