// Package embedding defines the embedding provider abstraction and its
// factory. Concrete backends live in subpackages (ollama, openai, cohere)
// and are registered by the caller, keeping this package free of
// backend-specific dependencies.
package embedding

import (
	"context"
	"fmt"
	"time"
)

// Provider is the interface all embedding backends implement.
type Provider interface {
	// Embed returns one vector per input text, in input order. All vectors
	// have Dimensions() elements.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the fixed output dimensionality for the configured
	// model. Known before the first Embed call.
	Dimensions() int
	// ModelName returns the configured model identifier.
	ModelName() string
}

// QueryEmbedder is an optional capability for providers whose models encode
// search queries differently from documents. Callers embed queries through
// it when the provider offers it and fall back to Embed otherwise.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Config holds everything needed to construct any embedding provider.
type Config struct {
	Provider string // "ollama", "openai", "cohere"
	Model    string
	APIKey   string
	BaseURL  string // override for self-hosted endpoints
	Timeout  time.Duration
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "ollama",
		Model:    "nomic-embed-text",
		Timeout:  60 * time.Second,
	}
}

// Constructor builds a Provider from config.
type Constructor func(cfg Config) (Provider, error)

// Factory creates Provider instances from config.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory creates an empty factory. Backends register themselves via
// Register before Create is called.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register adds a provider constructor under the given name.
func (f *Factory) Register(name string, ctor Constructor) {
	f.constructors[name] = ctor
}

// Create builds a Provider from config. Unknown provider names are a
// configuration error listing the registered backends.
func (f *Factory) Create(cfg Config) (Provider, error) {
	ctor, ok := f.constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider %q — registered: %v", cfg.Provider, f.names())
	}
	return ctor(cfg)
}

func (f *Factory) names() []string {
	var out []string
	for k := range f.constructors {
		out = append(out, k)
	}
	return out
}
