package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventUpload      AuditEventType = "document.upload"
	AuditEventUploadError AuditEventType = "document.upload_error"
	AuditEventQuery       AuditEventType = "kb.query"
	AuditEventQueryError  AuditEventType = "kb.query_error"
	AuditEventReset       AuditEventType = "kb.reset"
	AuditEventSave        AuditEventType = "kb.save"
	AuditEventLoad        AuditEventType = "kb.load"
	AuditEventLLMRequest  AuditEventType = "llm.request"
	AuditEventLLMResponse AuditEventType = "llm.response"
	AuditEventLLMError    AuditEventType = "llm.error"
)

// AuditEvent represents a single audit log entry.
type AuditEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	EventType   AuditEventType         `json:"event_type"`
	SessionID   string                 `json:"session_id"`
	UserID      string                 `json:"user_id,omitempty"`
	Success     bool                   `json:"success"`
	Duration    time.Duration          `json:"duration_ms,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	ErrorDetail string                 `json:"error_detail,omitempty"`
}

// AuditLogger writes audit events as JSON lines.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	userID    string
	enabled   bool
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // File path or "stdout"/"stderr"
	SessionID  string
	UserID     string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:    true,
		OutputPath: "stdout",
	}
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config *AuditConfig) (*AuditLogger, error) {
	if config == nil {
		config = DefaultAuditConfig()
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}

	return &AuditLogger{
		writer:    writer,
		sessionID: sessionID,
		userID:    config.UserID,
		enabled:   config.Enabled,
	}, nil
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Fill in defaults
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}
	if event.UserID == "" {
		event.UserID = l.userID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogUpload logs a document upload.
func (l *AuditLogger) LogUpload(ctx context.Context, filename, documentID string, chunks int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventUpload,
		Success:   true,
		Duration:  duration,
		Message:   fmt.Sprintf("Document uploaded: %s", filename),
		Details: map[string]interface{}{
			"filename":    filename,
			"document_id": documentID,
			"chunks":      chunks,
		},
	})
}

// LogUploadError logs a failed document upload.
func (l *AuditLogger) LogUploadError(ctx context.Context, filename string, err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventUploadError,
		Success:     false,
		Message:     fmt.Sprintf("Document upload failed: %s", filename),
		ErrorDetail: err.Error(),
		Details: map[string]interface{}{
			"filename": filename,
		},
	})
}

// LogQuery logs a knowledge base query.
func (l *AuditLogger) LogQuery(ctx context.Context, question string, sources int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventQuery,
		Success:   true,
		Duration:  duration,
		Message:   "Knowledge base query answered",
		Details: map[string]interface{}{
			"question": question,
			"sources":  sources,
		},
	})
}

// LogQueryError logs a failed knowledge base query.
func (l *AuditLogger) LogQueryError(ctx context.Context, question string, err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventQueryError,
		Success:     false,
		Message:     "Knowledge base query failed",
		ErrorDetail: err.Error(),
		Details: map[string]interface{}{
			"question": question,
		},
	})
}

// LogReset logs a knowledge base reset.
func (l *AuditLogger) LogReset(ctx context.Context) {
	l.Log(&AuditEvent{
		EventType: AuditEventReset,
		Success:   true,
		Message:   "Knowledge base cleared",
	})
}

// LogSave logs a vector store save.
func (l *AuditLogger) LogSave(ctx context.Context, message string, err error) {
	event := &AuditEvent{
		EventType: AuditEventSave,
		Success:   err == nil,
		Message:   message,
	}
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	l.Log(event)
}

// LogLoad logs a vector store load.
func (l *AuditLogger) LogLoad(ctx context.Context, message string, err error) {
	event := &AuditEvent{
		EventType: AuditEventLoad,
		Success:   err == nil,
		Message:   message,
	}
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	l.Log(event)
}

// LogLLMRequest logs an LLM request event.
func (l *AuditLogger) LogLLMRequest(ctx context.Context, provider, model string) {
	l.Log(&AuditEvent{
		EventType: AuditEventLLMRequest,
		Success:   true,
		Message:   fmt.Sprintf("LLM request to %s/%s", provider, model),
		Details: map[string]interface{}{
			"provider": provider,
			"model":    model,
		},
	})
}

// LogLLMResponse logs an LLM response event.
func (l *AuditLogger) LogLLMResponse(ctx context.Context, provider, model string, duration time.Duration, inputTokens, outputTokens int) {
	l.Log(&AuditEvent{
		EventType: AuditEventLLMResponse,
		Success:   true,
		Duration:  duration,
		Message:   fmt.Sprintf("LLM response from %s/%s", provider, model),
		Details: map[string]interface{}{
			"provider":      provider,
			"model":         model,
			"input_tokens":  inputTokens,
			"output_tokens": outputTokens,
			"total_tokens":  inputTokens + outputTokens,
		},
	})
}

// LogLLMError logs an LLM error event.
func (l *AuditLogger) LogLLMError(ctx context.Context, provider, model string, err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventLLMError,
		Success:     false,
		Message:     fmt.Sprintf("LLM error from %s/%s", provider, model),
		ErrorDetail: err.Error(),
		Details: map[string]interface{}{
			"provider": provider,
			"model":    model,
		},
	})
}

// Close closes the audit logger (if using a file).
func (l *AuditLogger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}

// Global audit logger instance
var globalAuditLogger *AuditLogger
var auditOnce sync.Once

// InitGlobalAuditLogger initializes the global audit logger.
func InitGlobalAuditLogger(config *AuditConfig) error {
	var err error
	auditOnce.Do(func() {
		globalAuditLogger, err = NewAuditLogger(config)
	})
	return err
}

// Audit returns the global audit logger.
func Audit() *AuditLogger {
	if globalAuditLogger == nil {
		// Return a disabled logger if not initialized
		return &AuditLogger{enabled: false}
	}
	return globalAuditLogger
}
