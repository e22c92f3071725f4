package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sellbotai/sellbot/internal/document"
	"github.com/sellbotai/sellbot/internal/metrics"
	"github.com/sellbotai/sellbot/internal/observability"
	"github.com/sellbotai/sellbot/internal/rag"
	"github.com/sellbotai/sellbot/internal/vectorstore"
)

// Engine is the subset of the RAG pipeline the HTTP API needs.
type Engine interface {
	Ingest(ctx context.Context, filename string, data []byte) (*rag.UploadResult, error)
	Query(ctx context.Context, question string, topK int) (*rag.QueryResult, error)
	Status(ctx context.Context) (*rag.Status, error)
	Reset(ctx context.Context) error
	Save(ctx context.Context) (string, error)
	Load(ctx context.Context) (string, error)
}

// Server is the HTTP API over a RAG engine.
type Server struct {
	engine  Engine
	metrics *metrics.ServiceMetrics
	log     *slog.Logger

	// maxUploadBytes bounds the request body on /upload. Slightly above
	// the document size limit so oversized files reach the engine's own
	// check and get the structured 413.
	maxUploadBytes int64
}

// Config configures the API server.
type Config struct {
	MaxFileSizeMB int
}

// New creates the API server.
func New(engine Engine, cfg Config, m *metrics.ServiceMetrics, log *slog.Logger) *Server {
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}
	maxMB := cfg.MaxFileSizeMB
	if maxMB <= 0 {
		maxMB = 50
	}
	return &Server{
		engine:         engine,
		metrics:        m,
		log:            log,
		maxUploadBytes: int64(maxMB+1) * 1024 * 1024,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("DELETE /reset", s.handleReset)
	mux.HandleFunc("POST /save", s.handleSave)
	mux.HandleFunc("POST /load", s.handleLoad)
	mux.HandleFunc("GET /metricz", s.handleMetrics)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "SellBot AI",
		"endpoints": map[string]string{
			"POST /upload":  "Upload a document (multipart field 'file')",
			"POST /query":   "Ask a question about uploaded documents",
			"GET /status":   "Knowledge base statistics",
			"DELETE /reset": "Clear the knowledge base",
			"POST /save":    "Persist the vector store",
			"POST /load":    "Restore the vector store",
			"GET /metricz":  "Service counters",
		},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "Missing 'file' form field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	result, err := s.engine.Ingest(r.Context(), header.Filename, data)
	s.metrics.RecordUpload(time.Since(start), err)
	if err != nil {
		s.log.Error("upload failed", "filename", header.Filename, "error", err)
		observability.Audit().LogUploadError(r.Context(), header.Filename, err)
		s.writeEngineError(w, err, "Processing error")
		return
	}

	observability.Audit().LogUpload(r.Context(), header.Filename, result.DocumentID, result.ChunksAdded, time.Since(start))
	s.writeJSON(w, http.StatusOK, result)
}

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := s.engine.Query(r.Context(), req.Question, req.TopK)
	noMatch := err == nil && result.Answer == rag.NoRelevantInfoAnswer
	s.metrics.RecordQuery(time.Since(start), noMatch, err)
	if err != nil {
		s.log.Error("query failed", "question", req.Question, "error", err)
		observability.Audit().LogQueryError(r.Context(), req.Question, err)
		s.writeEngineError(w, err, "Query error")
		return
	}

	observability.Audit().LogQuery(r.Context(), req.Question, len(result.Sources), time.Since(start))
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status(r.Context())
	if err != nil {
		s.writeEngineError(w, err, "Status error")
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Reset(r.Context()); err != nil {
		s.writeEngineError(w, err, "Reset error")
		return
	}
	s.metrics.RecordReset()
	observability.Audit().LogReset(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Knowledge base cleared",
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	msg, err := s.engine.Save(r.Context())
	observability.Audit().LogSave(r.Context(), msg, err)
	if err != nil {
		s.writeEngineError(w, err, "Save error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": msg,
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	msg, err := s.engine.Load(r.Context())
	observability.Audit().LogLoad(r.Context(), msg, err)
	if err != nil {
		s.writeEngineError(w, err, "Load error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": msg,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// writeEngineError maps pipeline errors to HTTP statuses. Unknown errors get
// a generic message so internals don't leak to clients.
func (s *Server) writeEngineError(w http.ResponseWriter, err error, generic string) {
	var unsupported *document.ErrUnsupportedType
	var tooLarge *document.ErrTooLarge

	switch {
	case errors.Is(err, rag.ErrEmptyQuestion),
		errors.Is(err, rag.ErrKnowledgeBaseEmpty),
		errors.Is(err, rag.ErrEmptyDocument),
		errors.As(err, &unsupported):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooLarge):
		s.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, vectorstore.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, generic)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
