package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an ingested corpus file. The chunk set belonging to a
// document is replaced as a whole whenever its content hash changes.
type Document struct {
	ID          uuid.UUID
	SourceFile  string
	Title       string
	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DocumentChunk is a persisted slice of a document, ordered by ChunkIndex.
type DocumentChunk struct {
	ID          uuid.UUID
	DocumentID  uuid.UUID
	ChunkIndex  int
	Content     string
	EmbeddingID string // point key in the vector index: "{document_id}-{chunk_index}"
	Metadata    ChunkMetadata
	CreatedAt   time.Time
}

// ChunkMetadata carries the header list captured at ingestion time and a
// synthetic section label.
type ChunkMetadata struct {
	Headers []string `json:"headers"`
	Section string   `json:"section"`
}

// RetrievedChunk is an ephemeral search result. It is never persisted.
type RetrievedChunk struct {
	Content    string
	Score      float32
	DocumentID string
	SourceFile string
	Title      string
	ChunkIndex int
	Metadata   ChunkMetadata
}

// Citation is a display artifact linking an answer back to source material.
type Citation struct {
	SourceFile     string `json:"source_file"`
	Title          string `json:"title"`
	ContentSnippet string `json:"content_snippet"`
}

// QueryResult is the orchestrator's output for a single query.
type QueryResult struct {
	Answer         string
	Citations      []Citation
	RetrievedCount int
}

// ChatSession groups the messages of one conversation.
type ChatSession struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage is a stored user or assistant message.
type ChatMessage struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Role      string // "user" or "assistant"
	Content   string
	Citations []Citation
	CreatedAt time.Time
}
