package usecase_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"book-rag/internal/domain"
)

// --- Shared mocks ---

type MockEmbeddingProvider struct {
	mock.Mock
}

func (m *MockEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingProvider) Dimension() int {
	args := m.Called()
	return args.Int(0)
}

type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) EnsureCollection(ctx context.Context, dimension int) error {
	args := m.Called(ctx, dimension)
	return args.Error(0)
}

func (m *MockVectorIndex) Upsert(ctx context.Context, points []domain.VectorPoint) error {
	args := m.Called(ctx, points)
	return args.Error(0)
}

func (m *MockVectorIndex) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.SearchHit, error) {
	args := m.Called(ctx, queryVector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchHit), args.Error(1)
}

func (m *MockVectorIndex) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

func (m *MockVectorIndex) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) GetBySourceFile(ctx context.Context, sourceFile string) (*domain.Document, error) {
	args := m.Called(ctx, sourceFile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) BulkInsert(ctx context.Context, chunks []domain.DocumentChunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockChunkRepository) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) GetSession(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) SaveMessage(ctx context.Context, message *domain.ChatMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockSessionRepository) GetHistory(ctx context.Context, sessionID uuid.UUID) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatMessage), args.Error(1)
}

type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Directly execute the function
	return fn(ctx)
}

type MockAnswerGenerator struct {
	mock.Mock
}

func (m *MockAnswerGenerator) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	args := m.Called(ctx, question, contextBlock)
	return args.String(0), args.Error(1)
}

func (m *MockAnswerGenerator) GenerateFromSelection(ctx context.Context, selectedText, question string) (string, error) {
	args := m.Called(ctx, selectedText, question)
	return args.String(0), args.Error(1)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string, limit int) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}
