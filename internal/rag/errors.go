package rag

import "errors"

// Validation errors surfaced to API callers as 400s.
var (
	ErrEmptyQuestion      = errors.New("question cannot be empty")
	ErrKnowledgeBaseEmpty = errors.New("no documents in knowledge base, upload documents first")
	ErrEmptyDocument      = errors.New("no text could be extracted from the document")
)
