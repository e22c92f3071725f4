package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sellbotai/sellbot/internal/config"
	"github.com/sellbotai/sellbot/internal/embedding"
	cohereembed "github.com/sellbotai/sellbot/internal/embedding/cohere"
	ollamaembed "github.com/sellbotai/sellbot/internal/embedding/ollama"
	openaiembed "github.com/sellbotai/sellbot/internal/embedding/openai"
	"github.com/sellbotai/sellbot/internal/llm"
	"github.com/sellbotai/sellbot/internal/llm/anthropic"
	"github.com/sellbotai/sellbot/internal/llm/gemini"
	"github.com/sellbotai/sellbot/internal/llm/openai"
	"github.com/sellbotai/sellbot/internal/metrics"
	"github.com/sellbotai/sellbot/internal/observability"
	"github.com/sellbotai/sellbot/internal/rag"
	"github.com/sellbotai/sellbot/internal/secrets"
	"github.com/sellbotai/sellbot/internal/server"
	"github.com/sellbotai/sellbot/internal/vectorstore"
	boltstore "github.com/sellbotai/sellbot/internal/vectorstore/bolt"
	memorystore "github.com/sellbotai/sellbot/internal/vectorstore/memory"
	neo4jstore "github.com/sellbotai/sellbot/internal/vectorstore/neo4j"
	pgvectorstore "github.com/sellbotai/sellbot/internal/vectorstore/pgvector"
	qdrantstore "github.com/sellbotai/sellbot/internal/vectorstore/qdrant"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "sellbot",
		Short: "Real estate document Q&A service",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "Config file path (optional, env and defaults otherwise)")

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List available providers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("LLM providers:")
			fmt.Println()
			for name, url := range llm.KnownProviders {
				fmt.Printf("  %-14s %s\n", name, url)
			}
			fmt.Println()
			fmt.Println("Embedding providers:")
			fmt.Println("  ollama         (local, default)")
			fmt.Println("  openai")
			fmt.Println("  cohere")
			fmt.Println()
			fmt.Println("Vector store providers:")
			fmt.Println("  memory         (in-process, gob snapshots)")
			fmt.Println("  bolt           (embedded file database)")
			fmt.Println("  qdrant")
			fmt.Println("  pgvector")
			fmt.Println("  neo4j")
			fmt.Println()
			fmt.Println("Configure in sellbot.yaml or via environment:")
			fmt.Println("  SELLBOT_LLM_PROVIDER=gemini")
			fmt.Println("  SELLBOT_LLM_API_KEY=...")
			fmt.Println("  SELLBOT_VECTORDB_PROVIDER=qdrant")
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sellbot %s\n", version)
		},
	}

	rootCmd.AddCommand(serveCmd, providersCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configPath string) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	ctx := context.Background()

	// Secrets fill in keys the config left blank.
	if err := secrets.Init(nil); err != nil {
		return fmt.Errorf("init secrets: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = secrets.GetOrDefault(ctx, string(secrets.SecretLLMAPIKey), "")
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = secrets.GetOrDefault(ctx, string(secrets.SecretEmbeddingAPIKey), "")
	}
	if cfg.VectorDB.PGVector.ConnString == "" {
		cfg.VectorDB.PGVector.ConnString = secrets.GetOrDefault(ctx, string(secrets.SecretPGConnString), "")
	}
	if cfg.VectorDB.Neo4j.Password == "" {
		cfg.VectorDB.Neo4j.Password = secrets.GetOrDefault(ctx, string(secrets.SecretNeo4jPassword), "")
	}

	if err := observability.InitGlobalAuditLogger(&observability.AuditConfig{
		Enabled:    true,
		OutputPath: "stdout",
	}); err != nil {
		return fmt.Errorf("init audit logger: %w", err)
	}

	tracing, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "sellbot",
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("create embedding provider: %w", err)
	}
	log.Info("embedding provider ready",
		"provider", cfg.Embedding.Provider,
		"model", embedder.ModelName(),
		"dimensions", embedder.Dimensions(),
	)

	store, err := buildStore(ctx, cfg, embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("create vector store: %w", err)
	}
	log.Info("vector store ready", "provider", cfg.VectorDB.Provider)

	generator, err := buildGenerator(cfg)
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	if generator == nil {
		return fmt.Errorf("LLM provider is required (set llm.provider)")
	}
	log.Info("LLM provider ready", "provider", generator.Name())

	engine, err := rag.NewEngine(embedder, store, generator, rag.Config{
		ChunkSize:           cfg.RAG.ChunkSize,
		ChunkOverlap:        cfg.RAG.ChunkOverlap,
		TopK:                cfg.RAG.TopK,
		SimilarityThreshold: float32(cfg.RAG.SimilarityThreshold),
		MaxFileSizeMB:       cfg.Document.MaxFileSizeMB,
		PersistPath:         cfg.VectorDB.Memory.PersistPath,
		EmbeddingProvider:   cfg.Embedding.Provider,
		VectorDBProvider:    cfg.VectorDB.Provider,
		LLMProvider:         cfg.LLM.Provider,
		Temperature:         cfg.LLM.Temperature,
		MaxTokens:           cfg.LLM.MaxTokens,
	}, log)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	svcMetrics := metrics.New()
	api := server.New(engine, server.Config{MaxFileSizeMB: cfg.Document.MaxFileSizeMB}, svcMetrics, log)

	health := server.NewHealthServer(&server.HealthConfig{Version: version})
	health.RegisterCheck("vectorstore", server.VectorStoreHealthChecker(cfg.VectorDB.Provider,
		func(ctx context.Context) error {
			_, err := store.Stats(ctx)
			return err
		}))
	health.RegisterCheck("embedding", server.EmbeddingHealthChecker(cfg.Embedding.Provider, nil))
	health.RegisterCheck("llm", server.LLMHealthChecker(cfg.LLM.Provider, nil))

	mux := http.NewServeMux()
	mux.Handle("/", api.Handler())
	mux.Handle("/health", health.Handler())
	mux.Handle("/healthz", health.Handler())
	mux.Handle("/ready", health.Handler())
	mux.Handle("/live", health.Handler())
	mux.Handle("/metrics", observability.Metrics().Handler())

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := server.NewShutdownHandler(nil)
	shutdown.RegisterHook("http-server", 10, func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	})
	shutdown.RegisterHook("vector-store", 90, func(ctx context.Context) error {
		if _, err := engine.Save(ctx); err != nil {
			log.Warn("save on shutdown failed", "error", err)
		}
		return store.Close()
	})
	shutdown.RegisterHook("tracing", 80, tracing.Shutdown)
	shutdown.RegisterHook("audit-logger", 95, func(ctx context.Context) error {
		return observability.Audit().Close()
	})
	shutdown.Start()
	health.SetReady(true)

	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			shutdown.Shutdown()
		}
	}()

	shutdown.Wait()
	log.Info("server stopped")
	return nil
}

func buildEmbedder(cfg *config.Config) (embedding.Provider, error) {
	factory := embedding.NewFactory()
	factory.Register("ollama", ollamaembed.New)
	factory.Register("openai", openaiembed.New)
	factory.Register("cohere", cohereembed.New)

	return factory.Create(embedding.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		APIKey:   cfg.Embedding.APIKey,
		BaseURL:  cfg.Embedding.BaseURL,
		Timeout:  60 * time.Second,
	})
}

func buildStore(ctx context.Context, cfg *config.Config, dimensions int) (vectorstore.Store, error) {
	factory := vectorstore.NewFactory()
	factory.Register("memory", memorystore.New)
	factory.Register("bolt", boltstore.New)
	factory.Register("qdrant", qdrantstore.New)
	factory.Register("pgvector", pgvectorstore.New)
	factory.Register("neo4j", neo4jstore.New)

	return factory.Create(ctx, vectorstore.Config{
		Provider:   cfg.VectorDB.Provider,
		Dimensions: dimensions,
		Memory: vectorstore.MemoryConfig{
			PersistPath: cfg.VectorDB.Memory.PersistPath,
		},
		Bolt: vectorstore.BoltConfig{
			Path:   cfg.VectorDB.Bolt.Path,
			Bucket: cfg.VectorDB.Bolt.Bucket,
		},
		Qdrant: vectorstore.QdrantConfig{
			Host:       cfg.VectorDB.Qdrant.Host,
			Port:       cfg.VectorDB.Qdrant.Port,
			Collection: cfg.VectorDB.Qdrant.Collection,
		},
		PGVector: vectorstore.PGVectorConfig{
			ConnString: cfg.VectorDB.PGVector.ConnString,
			Table:      cfg.VectorDB.PGVector.Table,
		},
		Neo4j: vectorstore.Neo4jConfig{
			URI:      cfg.VectorDB.Neo4j.URI,
			Username: cfg.VectorDB.Neo4j.Username,
			Password: cfg.VectorDB.Neo4j.Password,
			Index:    cfg.VectorDB.Neo4j.Index,
		},
	})
}

func buildGenerator(cfg *config.Config) (llm.Provider, error) {
	factory := llm.NewFactory()
	factory.Register("gemini", func(c llm.ProviderConfig) (llm.Provider, error) {
		return gemini.New(c.APIKey, c.Model, c.BaseURL)
	})
	factory.Register("anthropic", func(c llm.ProviderConfig) (llm.Provider, error) {
		return anthropic.New(c.APIKey, c.Model, c.BaseURL)
	})
	factory.Register("openai", func(c llm.ProviderConfig) (llm.Provider, error) {
		return openai.New(c.APIKey, c.Model, c.BaseURL)
	})
	// OpenAI-compatible presets
	for _, p := range []struct{ name, url string }{
		{"groq", llm.KnownProviders["groq"]},
		{"ollama", llm.KnownProviders["ollama"]},
		{"deepseek", llm.KnownProviders["deepseek"]},
		{"custom", ""},
	} {
		p := p
		factory.Register(p.name, func(c llm.ProviderConfig) (llm.Provider, error) {
			base := c.BaseURL
			if base == "" {
				base = p.url
			}
			key := c.APIKey
			if key == "" && p.name == "ollama" {
				key = "ollama" // local server ignores the key but the client requires one
			}
			return openai.New(key, c.Model, base)
		})
	}

	pc := llm.DefaultProviderConfig()
	pc.Provider = cfg.LLM.Provider
	pc.APIKey = cfg.LLM.APIKey
	pc.Model = cfg.LLM.Model
	pc.BaseURL = cfg.LLM.BaseURL
	if cfg.LLM.Timeout > 0 {
		pc.Timeout = cfg.LLM.Timeout
	}
	if cfg.LLM.MaxRetries > 0 {
		pc.MaxRetries = cfg.LLM.MaxRetries
	}
	pc.RequestsPerMinute = cfg.LLM.RequestsPerMinute
	pc.TokensPerMinute = cfg.LLM.TokensPerMinute
	return factory.Create(pc)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
