package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	VectorDB  VectorDBConfig  `mapstructure:"vectordb"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RAG       RAGConfig       `mapstructure:"rag"`
	Document  DocumentConfig  `mapstructure:"document"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

type VectorDBConfig struct {
	Provider string `mapstructure:"provider"`

	Memory   MemoryConfig   `mapstructure:"memory"`
	Bolt     BoltConfig     `mapstructure:"bolt"`
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	PGVector PGVectorConfig `mapstructure:"pgvector"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
}

type MemoryConfig struct {
	PersistPath string `mapstructure:"persist_path"`
}

type BoltConfig struct {
	Path   string `mapstructure:"path"`
	Bucket string `mapstructure:"bucket"`
}

type QdrantConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
}

type PGVectorConfig struct {
	ConnString string `mapstructure:"conn_string"`
	Table      string `mapstructure:"table"`
}

type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Index    string `mapstructure:"index"`
}

type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	TokensPerMinute   int           `mapstructure:"tokens_per_minute"`
}

type RAGConfig struct {
	ChunkSize           int     `mapstructure:"chunk_size"`
	ChunkOverlap        int     `mapstructure:"chunk_overlap"`
	TopK                int     `mapstructure:"top_k"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

type DocumentConfig struct {
	MaxFileSizeMB int `mapstructure:"max_file_size_mb"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Environment  string  `mapstructure:"environment"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// setDefaults registers the defaults on a viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "http://localhost:11434")

	v.SetDefault("vectordb.provider", "memory")
	v.SetDefault("vectordb.memory.persist_path", "data/vector_store.gob")
	v.SetDefault("vectordb.bolt.path", "data/vector_store.db")
	v.SetDefault("vectordb.bolt.bucket", "chunks")
	v.SetDefault("vectordb.qdrant.host", "localhost")
	v.SetDefault("vectordb.qdrant.port", 6334)
	v.SetDefault("vectordb.qdrant.collection", "sellbot_chunks")
	v.SetDefault("vectordb.pgvector.conn_string", "")
	v.SetDefault("vectordb.pgvector.table", "sellbot_chunks")
	v.SetDefault("vectordb.neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("vectordb.neo4j.username", "neo4j")
	v.SetDefault("vectordb.neo4j.password", "")
	v.SetDefault("vectordb.neo4j.index", "chunk_embeddings")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-1.5-flash")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", "2m")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.requests_per_minute", 0)
	v.SetDefault("llm.tokens_per_minute", 0)

	v.SetDefault("rag.chunk_size", 800)
	v.SetDefault("rag.chunk_overlap", 200)
	v.SetDefault("rag.top_k", 10)
	v.SetDefault("rag.similarity_threshold", 0.15)

	v.SetDefault("document.max_file_size_mb", 50)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	// API-backed providers need a key; local ones don't.
	switch c.Embedding.Provider {
	case "openai", "cohere":
		if c.Embedding.APIKey == "" {
			warnings = append(warnings, fmt.Sprintf("embedding provider '%s' is configured but api_key is empty", c.Embedding.Provider))
		}
	}
	if c.LLM.Provider != "" && c.LLM.Provider != "none" && c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf("LLM provider '%s' is configured but api_key is empty", c.LLM.Provider))
	}

	// Check temperature range [0, 2.0]
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2.0 {
		warnings = append(warnings, fmt.Sprintf("LLM temperature %.2f is outside recommended range [0.0, 2.0]", c.LLM.Temperature))
	}
	if c.LLM.MaxTokens < 0 {
		warnings = append(warnings, fmt.Sprintf("LLM max_tokens %d is negative", c.LLM.MaxTokens))
	}
	if c.LLM.MaxRetries < 0 {
		warnings = append(warnings, fmt.Sprintf("LLM max_retries %d is negative", c.LLM.MaxRetries))
	}
	if c.LLM.Timeout < 0 {
		warnings = append(warnings, fmt.Sprintf("LLM timeout %s is negative", c.LLM.Timeout))
	}

	if c.RAG.SimilarityThreshold < 0 || c.RAG.SimilarityThreshold > 1 {
		warnings = append(warnings, fmt.Sprintf("similarity_threshold %.2f is outside range [0.0, 1.0]", c.RAG.SimilarityThreshold))
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize && c.RAG.ChunkSize > 0 {
		warnings = append(warnings, fmt.Sprintf("chunk_overlap %d is not smaller than chunk_size %d", c.RAG.ChunkOverlap, c.RAG.ChunkSize))
	}
	if c.Document.MaxFileSizeMB < 0 {
		warnings = append(warnings, fmt.Sprintf("max_file_size_mb %d is negative", c.Document.MaxFileSizeMB))
	}

	return warnings
}

// Load reads configuration from file and environment. An empty path loads
// defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SELLBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Validate configuration and print warnings
	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
