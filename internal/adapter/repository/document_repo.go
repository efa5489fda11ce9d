package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"book-rag/internal/domain"
)

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a pgx-backed DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool) domain.DocumentRepository {
	return &documentRepository{pool: pool}
}

type rowExecutor interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func (r *documentRepository) getExecutor(ctx context.Context) rowExecutor {
	if tx := ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *documentRepository) GetBySourceFile(ctx context.Context, sourceFile string) (*domain.Document, error) {
	query := `
		SELECT document_id, source_file, title, content_hash, created_at, updated_at
		FROM documents
		WHERE source_file = $1
	`
	row := r.getExecutor(ctx).QueryRow(ctx, query, sourceFile)
	return scanDocument(row)
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	query := `
		SELECT document_id, source_file, title, content_hash, created_at, updated_at
		FROM documents
		WHERE document_id = $1
	`
	row := r.getExecutor(ctx).QueryRow(ctx, query, id)
	return scanDocument(row)
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	err := row.Scan(&doc.ID, &doc.SourceFile, &doc.Title, &doc.ContentHash, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return &doc, nil
}

func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (document_id, source_file, title, content_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, doc.ID, doc.SourceFile, doc.Title, doc.ContentHash, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (r *documentRepository) Update(ctx context.Context, doc *domain.Document) error {
	query := `
		UPDATE documents
		SET title = $1, content_hash = $2, updated_at = $3
		WHERE document_id = $4
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, doc.Title, doc.ContentHash, doc.UpdatedAt, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM documents WHERE document_id = $1`
	_, err := r.getExecutor(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
