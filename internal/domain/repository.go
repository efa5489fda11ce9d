package domain

import (
	"context"

	"github.com/google/uuid"
)

// DocumentRepository manages document records. Documents and their chunks
// are owned by the ingestion subsystem.
type DocumentRepository interface {
	// GetBySourceFile retrieves a document by its corpus path.
	// Returns nil, nil if not found.
	GetBySourceFile(ctx context.Context, sourceFile string) (*Document, error)

	// GetByID retrieves a document by id. Returns nil, nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// Create inserts a new document.
	Create(ctx context.Context, doc *Document) error

	// Update rewrites title, content hash and updated_at.
	Update(ctx context.Context, doc *Document) error

	// Delete removes a document record.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChunkRepository manages persisted chunk records.
type ChunkRepository interface {
	// BulkInsert inserts the chunk set of a document.
	BulkInsert(ctx context.Context, chunks []DocumentChunk) error

	// DeleteByDocumentID removes every chunk of a document.
	DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error
}

// SessionRepository manages chat sessions and their message history.
type SessionRepository interface {
	// GetSession retrieves a session by id. Returns nil, nil if not found.
	GetSession(ctx context.Context, id uuid.UUID) (*ChatSession, error)

	// CreateSession inserts a new session.
	CreateSession(ctx context.Context, session *ChatSession) error

	// SaveMessage appends a message to a session.
	SaveMessage(ctx context.Context, message *ChatMessage) error

	// GetHistory returns a session's messages ordered by creation time.
	GetHistory(ctx context.Context, sessionID uuid.UUID) ([]ChatMessage, error)
}

// TransactionManager runs a function within a database transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
