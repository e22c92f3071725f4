package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.ServiceName != "sellbot" {
		t.Fatalf("expected service name 'sellbot', got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Fatalf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, &TracingConfig{
		ServiceName: "test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
	if tp.Tracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
	// Should be no-op, shutdown should succeed
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracing_NilConfig(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
}

func TestStartIngestSpan(t *testing.T) {
	ctx := context.Background()
	_, span := StartIngestSpan(ctx, "brochure.pdf", 4096)
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	RecordIngestResult(span, "doc_1_1700000000", 12)
	span.End()
}

func TestStartEmbedSpan(t *testing.T) {
	ctx := context.Background()
	_, span := StartEmbedSpan(ctx, "ollama", "nomic-embed-text", 12)
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	span.End()
}

func TestStartSearchSpan(t *testing.T) {
	ctx := context.Background()
	_, span := StartSearchSpan(ctx, "memory", 10)
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	RecordSearchResult(span, 10, 4)
	span.End()
}

func TestStartLLMSpan(t *testing.T) {
	ctx := context.Background()
	_, span := StartLLMSpan(ctx, "gemini", "gemini-1.5-flash")
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	span.End()
}

func TestRecordLLMMetrics(t *testing.T) {
	ctx := context.Background()
	_, span := StartLLMSpan(ctx, "openai", "gpt-4")

	// Should not panic
	RecordLLMMetrics(span, 100, 200, 500*time.Millisecond)
	span.End()
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()
	_, span := StartQuerySpan(ctx)

	// Should not panic with nil
	RecordError(span, nil)

	// Should record error
	RecordError(span, errors.New("test error"))
	span.End()
}

func TestSpanKindConstants(t *testing.T) {
	// Verify constants are defined
	if SpanKindIngest == "" {
		t.Fatal("SpanKindIngest should not be empty")
	}
	if SpanKindEmbed == "" {
		t.Fatal("SpanKindEmbed should not be empty")
	}
	if SpanKindSearch == "" {
		t.Fatal("SpanKindSearch should not be empty")
	}
	if SpanKindLLM == "" {
		t.Fatal("SpanKindLLM should not be empty")
	}
	if SpanKindQuery == "" {
		t.Fatal("SpanKindQuery should not be empty")
	}
}

func TestTracerName(t *testing.T) {
	if TracerName != "github.com/sellbotai/sellbot" {
		t.Fatalf("unexpected tracer name: %s", TracerName)
	}
}

// Test that spans can be nested the way a query nests its stages
func TestNestedSpans(t *testing.T) {
	ctx := context.Background()

	ctx, querySpan := StartQuerySpan(ctx)

	ctx, embedSpan := StartEmbedSpan(ctx, "ollama", "nomic-embed-text", 1)
	embedSpan.End()

	ctx, searchSpan := StartSearchSpan(ctx, "qdrant", 10)
	RecordSearchResult(searchSpan, 10, 3)
	searchSpan.End()

	_, llmSpan := StartLLMSpan(ctx, "gemini", "gemini-1.5-flash")
	RecordLLMMetrics(llmSpan, 50, 100, 200*time.Millisecond)
	llmSpan.End()

	querySpan.End()
}

// Test TracerProvider methods
func TestTracerProvider_Shutdown_NilProvider(t *testing.T) {
	tp := &TracerProvider{}
	err := tp.Shutdown(context.Background())
	if err != nil {
		t.Fatalf("expected nil error for nil provider, got: %v", err)
	}
}

// Verify codes package is correctly imported
func TestCodesPackage(t *testing.T) {
	_ = codes.Error
	_ = codes.Ok
}
