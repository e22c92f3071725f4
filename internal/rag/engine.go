// Package rag orchestrates the retrieval pipeline: document ingest
// (parse, clean, chunk, embed, store) and question answering (normalize,
// embed, search, filter, generate).
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sellbotai/sellbot/internal/chunker"
	"github.com/sellbotai/sellbot/internal/document"
	"github.com/sellbotai/sellbot/internal/embedding"
	"github.com/sellbotai/sellbot/internal/llm"
	"github.com/sellbotai/sellbot/internal/observability"
	"github.com/sellbotai/sellbot/internal/vectorstore"
)

// Config tunes the pipeline. Thresholds compare against the similarity
// scores of the configured backend, so the right value depends on which
// backend is active.
type Config struct {
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	SimilarityThreshold float32
	MaxFileSizeMB       int
	PersistPath         string

	// Labels reported by Status.
	EmbeddingProvider string
	VectorDBProvider  string
	LLMProvider       string

	// Generation settings.
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:           800,
		ChunkOverlap:        200,
		TopK:                10,
		SimilarityThreshold: 0.15,
		MaxFileSizeMB:       50,
		Temperature:         0.7,
		MaxTokens:           2048,
	}
}

// UploadResult is the outcome of a successful ingest.
type UploadResult struct {
	Status           string        `json:"status"`
	Message          string        `json:"message"`
	DocumentID       string        `json:"document_id"`
	Filename         string        `json:"filename"`
	FileInfo         document.Info `json:"file_info"`
	ChunksAdded      int           `json:"chunks_added"`
	TotalChunks      int           `json:"total_chunks"`
	ProcessingTimeMS float64       `json:"processing_time_ms"`
}

// Source is one citation in a query answer. Text is truncated to a short
// preview.
type Source struct {
	Text            string  `json:"text"`
	Filename        string  `json:"filename"`
	ChunkIndex      int     `json:"chunk_index"`
	SimilarityScore float64 `json:"similarity_score"`
}

// QueryResult is the outcome of a knowledge base query.
type QueryResult struct {
	Question         string   `json:"question"`
	Answer           string   `json:"answer"`
	Sources          []Source `json:"sources"`
	ProcessingTimeMS float64  `json:"processing_time_ms"`
}

// Status reports the current state of the knowledge base.
type Status struct {
	Status           string `json:"status"`
	TotalDocuments   int64  `json:"total_documents"`
	TotalChunks      int    `json:"total_chunks"`
	EmbeddingModel   string `json:"embedding_model"`
	VectorDBProvider string `json:"vector_db_provider"`
	LLMModel         string `json:"llm_model"`
}

// Engine wires an embedding provider, a vector store, and an LLM into the
// pipeline.
type Engine struct {
	embedder  embedding.Provider
	store     vectorstore.Store
	generator llm.Provider
	cfg       Config
	log       *slog.Logger

	docCount atomic.Int64
}

// NewEngine creates the pipeline. The generator is required: queries that
// clear the similarity threshold always go to the LLM.
func NewEngine(embedder embedding.Provider, store vectorstore.Store, generator llm.Provider, cfg Config, log *slog.Logger) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag engine: embedding provider is required")
	}
	if store == nil {
		return nil, fmt.Errorf("rag engine: vector store is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("rag engine: llm provider is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		embedder:  embedder,
		store:     store,
		generator: generator,
		cfg:       cfg,
		log:       log,
	}, nil
}

// Ingest parses, cleans, chunks, embeds, and stores one uploaded document.
func (e *Engine) Ingest(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	start := time.Now()
	ctx, span := observability.StartIngestSpan(ctx, filename, len(data))
	defer span.End()

	if err := document.CheckSize(data, e.cfg.MaxFileSizeMB); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	text, err := document.Parse(data, filename)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		observability.RecordError(span, ErrEmptyDocument)
		return nil, ErrEmptyDocument
	}

	cleaned := chunker.Clean(text)
	chunks := chunker.Split(cleaned, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		observability.RecordError(span, ErrEmptyDocument)
		return nil, ErrEmptyDocument
	}

	vectors, err := e.embed(ctx, chunks)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	docID := fmt.Sprintf("doc_%d_%d", e.docCount.Add(1), time.Now().Unix())
	uploadTime := strconv.FormatInt(time.Now().Unix(), 10)
	metadatas := make([]map[string]string, len(chunks))
	for i := range chunks {
		metadatas[i] = map[string]string{
			"filename":     filename,
			"document_id":  docID,
			"chunk_index":  strconv.Itoa(i),
			"total_chunks": strconv.Itoa(len(chunks)),
			"upload_time":  uploadTime,
		}
	}

	if _, err := e.store.Add(ctx, vectors, chunks, metadatas); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	stats, err := e.store.Stats(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("store stats: %w", err)
	}

	observability.RecordIngestResult(span, docID, len(chunks))
	observability.Metrics().RecordIngest(time.Since(start), len(chunks), stats.Vectors, nil)
	e.log.Info("document ingested",
		"filename", filename,
		"document_id", docID,
		"chunks", len(chunks),
		"total_chunks", stats.Vectors,
	)

	return &UploadResult{
		Status:           "success",
		Message:          "Document processed successfully",
		DocumentID:       docID,
		Filename:         filename,
		FileInfo:         document.Describe(data, filename),
		ChunksAdded:      len(chunks),
		TotalChunks:      stats.Vectors,
		ProcessingTimeMS: roundMS(time.Since(start)),
	}, nil
}

// Query answers a question from the knowledge base. When no chunk clears
// the similarity threshold the fixed fallback answer is returned without
// calling the LLM.
func (e *Engine) Query(ctx context.Context, question string, topK int) (*QueryResult, error) {
	start := time.Now()
	ctx, span := observability.StartQuerySpan(ctx)
	defer span.End()

	if strings.TrimSpace(question) == "" {
		observability.RecordError(span, ErrEmptyQuestion)
		return nil, ErrEmptyQuestion
	}

	stats, err := e.store.Stats(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("store stats: %w", err)
	}
	if stats.Vectors == 0 {
		observability.RecordError(span, ErrKnowledgeBaseEmpty)
		return nil, ErrKnowledgeBaseEmpty
	}

	if topK <= 0 {
		topK = e.cfg.TopK
	}

	// Normalization only feeds retrieval; the LLM sees the original
	// question.
	normalized := NormalizeQuery(question)
	queryVector, err := e.embedQuery(ctx, normalized)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("embed query: %w", err)
	}

	searchCtx, searchSpan := observability.StartSearchSpan(ctx, stats.Provider, topK)
	searchStart := time.Now()
	results, err := e.store.Search(searchCtx, queryVector, topK)
	observability.Metrics().RecordSearch(time.Since(searchStart), len(results), err)
	if err != nil {
		observability.RecordError(searchSpan, err)
		searchSpan.End()
		observability.RecordError(span, err)
		return nil, fmt.Errorf("search: %w", err)
	}

	relevant := results[:0]
	for _, r := range results {
		if r.Similarity > e.cfg.SimilarityThreshold {
			relevant = append(relevant, r)
		}
	}
	observability.RecordSearchResult(searchSpan, len(results), len(relevant))
	searchSpan.End()

	if len(relevant) == 0 {
		e.log.Info("query below threshold", "question", question, "hits", len(results))
		return &QueryResult{
			Question:         question,
			Answer:           NoRelevantInfoAnswer,
			Sources:          []Source{},
			ProcessingTimeMS: roundMS(time.Since(start)),
		}, nil
	}

	answer, err := e.generate(ctx, question, relevant)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]Source, len(relevant))
	for i, r := range relevant {
		preview := r.Text
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		idx, _ := strconv.Atoi(r.Metadata["chunk_index"])
		filename := r.Metadata["filename"]
		if filename == "" {
			filename = "Unknown"
		}
		sources[i] = Source{
			Text:            preview,
			Filename:        filename,
			ChunkIndex:      idx,
			SimilarityScore: round3(float64(r.Similarity)),
		}
	}

	e.log.Info("query answered", "question", question, "sources", len(sources))
	return &QueryResult{
		Question:         question,
		Answer:           answer,
		Sources:          sources,
		ProcessingTimeMS: roundMS(time.Since(start)),
	}, nil
}

// Status reports knowledge base statistics.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	stats, err := e.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("store stats: %w", err)
	}
	return &Status{
		Status:           "running",
		TotalDocuments:   e.docCount.Load(),
		TotalChunks:      stats.Vectors,
		EmbeddingModel:   e.cfg.EmbeddingProvider + "/" + e.embedder.ModelName(),
		VectorDBProvider: stats.Provider,
		LLMModel:         e.cfg.LLMProvider + "/" + e.generator.Name(),
	}, nil
}

// Reset clears the knowledge base and the document counter.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	e.docCount.Store(0)
	e.log.Info("knowledge base reset")
	return nil
}

// Save persists the vector store to the configured path.
func (e *Engine) Save(ctx context.Context) (string, error) {
	return e.store.Save(ctx, e.cfg.PersistPath)
}

// Load restores the vector store from the configured path.
func (e *Engine) Load(ctx context.Context) (string, error) {
	return e.store.Load(ctx, e.cfg.PersistPath)
}

func (e *Engine) embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := observability.StartEmbedSpan(ctx, e.cfg.EmbeddingProvider, e.embedder.ModelName(), len(texts))
	defer span.End()

	start := time.Now()
	vectors, err := e.embedder.Embed(ctx, texts)
	observability.Metrics().RecordEmbedding(time.Since(start), len(texts), err)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return vectors, nil
}

// embedQuery prefers the provider's query-specific encoding when it has one.
func (e *Engine) embedQuery(ctx context.Context, text string) ([]float32, error) {
	qe, ok := e.embedder.(embedding.QueryEmbedder)
	if !ok {
		vectors, err := e.embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		return vectors[0], nil
	}

	ctx, span := observability.StartEmbedSpan(ctx, e.cfg.EmbeddingProvider, e.embedder.ModelName(), 1)
	defer span.End()

	start := time.Now()
	vector, err := qe.EmbedQuery(ctx, text)
	observability.Metrics().RecordEmbedding(time.Since(start), 1, err)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return vector, nil
}

func (e *Engine) generate(ctx context.Context, question string, relevant []vectorstore.Result) (string, error) {
	prompt := buildPrompt(buildContext(relevant), question)

	ctx, span := observability.StartLLMSpan(ctx, e.cfg.LLMProvider, e.generator.Name())
	defer span.End()

	start := time.Now()
	resp, err := e.generator.Complete(ctx, &llm.Prompt{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	}, &llm.RequestOptions{
		Temperature: &e.cfg.Temperature,
		MaxTokens:   &e.cfg.MaxTokens,
	})
	if err != nil {
		observability.Metrics().RecordLLMRequest(time.Since(start), 0, err)
		observability.RecordError(span, err)
		return "", err
	}
	observability.Metrics().RecordLLMRequest(time.Since(start), resp.InputTokens+resp.OutputTokens, nil)
	observability.RecordLLMMetrics(span, resp.InputTokens, resp.OutputTokens, time.Since(start))

	return llm.StripThinkingTags(resp.Content), nil
}

func roundMS(d time.Duration) float64 {
	return math.Round(float64(d.Microseconds())/10) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
