// Package qdrant implements a vector store on a Qdrant server over gRPC.
// The collection is created with cosine distance and Qdrant's scores are
// already similarities, so they pass through untouched. The server owns
// persistence; Save and Load only report that.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sellbotai/sellbot/internal/vectorstore"
)

// Store is the Qdrant-backed backend.
type Store struct {
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
	dimensions int
}

// New connects to Qdrant and ensures the collection exists with cosine
// distance and the configured dimensionality.
func New(ctx context.Context, cfg vectorstore.Config) (vectorstore.Store, error) {
	if cfg.Qdrant.Collection == "" {
		return nil, fmt.Errorf("qdrant store: collection is required")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Qdrant.Host, cfg.Qdrant.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	s := &Store{
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: cfg.Qdrant.Collection,
		dimensions: cfg.Dimensions,
	}
	if err := s.ensureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	collections := pb.NewCollectionsClient(s.conn)

	list, err := collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("qdrant list collections: %w", err)
	}
	for _, c := range list.Collections {
		if c.Name == s.collection {
			return nil
		}
	}

	_, err = collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(s.dimensions),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection %q: %w", s.collection, err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, vectors [][]float32, texts []string, metadatas []map[string]string) ([]string, error) {
	if err := vectorstore.ValidateBatch(s.dimensions, vectors, texts, metadatas); err != nil {
		return nil, err
	}

	ids := make([]string, len(vectors))
	points := make([]*pb.PointStruct, len(vectors))
	for i := range vectors {
		id := uuid.NewString()
		ids[i] = id

		payload := map[string]*pb.Value{
			"text": {Kind: &pb.Value_StringValue{StringValue: texts[i]}},
		}
		for k, v := range metadatas[i] {
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vectors[i]}}},
			Payload: payload,
		}
	}

	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant upsert: %w", err)
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

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	results := make([]vectorstore.Result, len(resp.Result))
	for i, pt := range resp.Result {
		text := ""
		meta := make(map[string]string)
		for k, v := range pt.Payload {
			if k == "text" {
				text = v.GetStringValue()
			} else {
				meta[k] = v.GetStringValue()
			}
		}
		results[i] = vectorstore.Result{
			ID:         pt.Id.GetUuid(),
			Text:       text,
			Metadata:   meta,
			Similarity: pt.Score,
		}
	}
	return results, nil
}

// Save is a no-op: the Qdrant server owns persistence.
func (s *Store) Save(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf("qdrant persists collection %q server-side", s.collection), nil
}

// Load is a no-op: the collection is live on the server.
func (s *Store) Load(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf("qdrant collection %q is loaded server-side", s.collection), nil
}

// Reset deletes every point in the collection (empty filter matches all).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{Filter: &pb.Filter{}},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant reset: %w", err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (vectorstore.Stats, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return vectorstore.Stats{}, fmt.Errorf("qdrant count: %w", err)
	}
	return vectorstore.Stats{
		Provider:   "qdrant",
		Vectors:    int(resp.Result.Count),
		Dimensions: s.dimensions,
	}, nil
}

func (s *Store) Close() error { return s.conn.Close() }
