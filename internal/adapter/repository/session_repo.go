package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"book-rag/internal/domain"
)

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a pgx-backed SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) domain.SessionRepository {
	return &sessionRepository{pool: pool}
}

func (r *sessionRepository) getExecutor(ctx context.Context) rowExecutor {
	if tx := ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *sessionRepository) GetSession(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	query := `
		SELECT session_id, user_id, created_at, updated_at
		FROM chat_sessions
		WHERE session_id = $1
	`
	row := r.getExecutor(ctx).QueryRow(ctx, query, id)

	var session domain.ChatSession
	err := row.Scan(&session.ID, &session.UserID, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (session_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, session.ID, session.UserID, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *sessionRepository) SaveMessage(ctx context.Context, message *domain.ChatMessage) error {
	var citations []byte
	if message.Citations != nil {
		var err error
		citations, err = json.Marshal(message.Citations)
		if err != nil {
			return fmt.Errorf("failed to marshal citations: %w", err)
		}
	}

	query := `
		INSERT INTO chat_messages (message_id, session_id, role, content, citations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query, message.ID, message.SessionID, message.Role, message.Content, citations, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetHistory(ctx context.Context, sessionID uuid.UUID) ([]domain.ChatMessage, error) {
	query := `
		SELECT message_id, session_id, role, content, citations, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var citations []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &citations, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if len(citations) > 0 {
			if err := json.Unmarshal(citations, &m.Citations); err != nil {
				return nil, fmt.Errorf("failed to unmarshal citations: %w", err)
			}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return messages, nil
}
