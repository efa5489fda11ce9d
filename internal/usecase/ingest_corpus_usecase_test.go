package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"book-rag/internal/domain"
	"book-rag/internal/infra/logger"
	"book-rag/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func writeCorpusFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newIngestUsecase(
	corpusDir string,
	docRepo *MockDocumentRepository,
	chunkRepo *MockChunkRepository,
	vectorIndex *MockVectorIndex,
	encoder *MockEmbeddingProvider,
) usecase.IngestCorpusUsecase {
	return usecase.NewIngestCorpusUsecase(
		corpusDir, docRepo, chunkRepo, vectorIndex,
		new(MockTransactionManager), encoder, domain.NewChunker(), 2,
		logger.NewContextLogger("book-rag-test", nil),
	)
}

func TestIngestCorpus_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("Indexes a new document", func(t *testing.T) {
		dir := t.TempDir()
		content := "# The Book\n\nA short chapter about things."
		path := writeCorpusFile(t, dir, "book.md", content)

		docRepo := new(MockDocumentRepository)
		chunkRepo := new(MockChunkRepository)
		vectorIndex := new(MockVectorIndex)
		encoder := new(MockEmbeddingProvider)

		docRepo.On("GetBySourceFile", mock.Anything, path).Return(nil, nil)
		encoder.On("Embed", mock.Anything, content).Return([]float32{0.1, 0.2}, nil)

		docRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
			return d.SourceFile == path &&
				d.Title == "The Book" &&
				d.ContentHash == domain.Fingerprint([]byte(content))
		})).Return(nil)
		chunkRepo.On("BulkInsert", mock.Anything, mock.MatchedBy(func(chunks []domain.DocumentChunk) bool {
			return len(chunks) == 1 && chunks[0].ChunkIndex == 0 && chunks[0].Content == content
		})).Return(nil)
		vectorIndex.On("Upsert", mock.Anything, mock.MatchedBy(func(points []domain.VectorPoint) bool {
			return len(points) == 1 &&
				points[0].SourceFile == path &&
				points[0].Metadata.Section == "chunk_0"
		})).Return(nil)

		uc := newIngestUsecase(dir, docRepo, chunkRepo, vectorIndex, encoder)
		result, err := uc.Ingest(ctx, false)

		assert.NoError(t, err)
		assert.Equal(t, usecase.StatusSuccess, result.Status)
		assert.Equal(t, 1, result.ProcessedFiles)
		assert.Equal(t, 1, result.IndexedChunks)
		assert.Equal(t, "Successfully processed 1 files and indexed 1 chunks", result.Message)
		docRepo.AssertExpectations(t)
		chunkRepo.AssertExpectations(t)
		vectorIndex.AssertExpectations(t)
	})

	t.Run("Skips an unchanged document", func(t *testing.T) {
		dir := t.TempDir()
		content := "# Same\n\nNothing changed here."
		path := writeCorpusFile(t, dir, "same.md", content)

		docRepo := new(MockDocumentRepository)
		chunkRepo := new(MockChunkRepository)
		vectorIndex := new(MockVectorIndex)
		encoder := new(MockEmbeddingProvider)

		docRepo.On("GetBySourceFile", mock.Anything, path).Return(&domain.Document{
			ID:          uuid.New(),
			SourceFile:  path,
			ContentHash: domain.Fingerprint([]byte(content)),
		}, nil)

		uc := newIngestUsecase(dir, docRepo, chunkRepo, vectorIndex, encoder)
		result, err := uc.Ingest(ctx, false)

		assert.NoError(t, err)
		assert.Equal(t, usecase.StatusSuccess, result.Status)
		assert.Equal(t, 1, result.ProcessedFiles)
		assert.Equal(t, 0, result.IndexedChunks)
		encoder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
		chunkRepo.AssertNotCalled(t, "BulkInsert", mock.Anything, mock.Anything)
	})

	t.Run("Force reindexes an unchanged document", func(t *testing.T) {
		dir := t.TempDir()
		content := "# Same\n\nNothing changed here."
		path := writeCorpusFile(t, dir, "same.md", content)
		docID := uuid.New()

		docRepo := new(MockDocumentRepository)
		chunkRepo := new(MockChunkRepository)
		vectorIndex := new(MockVectorIndex)
		encoder := new(MockEmbeddingProvider)

		docRepo.On("GetBySourceFile", mock.Anything, path).Return(&domain.Document{
			ID:          docID,
			SourceFile:  path,
			ContentHash: domain.Fingerprint([]byte(content)),
			CreatedAt:   time.Now(),
		}, nil)
		encoder.On("Embed", mock.Anything, content).Return([]float32{0.3}, nil)

		docRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		chunkRepo.On("DeleteByDocumentID", mock.Anything, docID).Return(nil)
		vectorIndex.On("DeleteByDocumentID", mock.Anything, docID).Return(nil)
		chunkRepo.On("BulkInsert", mock.Anything, mock.Anything).Return(nil)
		vectorIndex.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		uc := newIngestUsecase(dir, docRepo, chunkRepo, vectorIndex, encoder)
		result, err := uc.Ingest(ctx, true)

		assert.NoError(t, err)
		assert.Equal(t, 1, result.IndexedChunks)
		docRepo.AssertExpectations(t)
		chunkRepo.AssertExpectations(t)
		vectorIndex.AssertExpectations(t)
	})

	t.Run("A failing file does not abort the run", func(t *testing.T) {
		dir := t.TempDir()
		goodContent := "# Good\n\nThis one embeds fine."
		badContent := "# Bad\n\nThis one does not."
		goodPath := writeCorpusFile(t, dir, "a_good.md", goodContent)
		badPath := writeCorpusFile(t, dir, "b_bad.md", badContent)

		docRepo := new(MockDocumentRepository)
		chunkRepo := new(MockChunkRepository)
		vectorIndex := new(MockVectorIndex)
		encoder := new(MockEmbeddingProvider)

		docRepo.On("GetBySourceFile", mock.Anything, goodPath).Return(nil, nil)
		docRepo.On("GetBySourceFile", mock.Anything, badPath).Return(nil, nil)
		encoder.On("Embed", mock.Anything, goodContent).Return([]float32{0.1}, nil)
		encoder.On("Embed", mock.Anything, badContent).Return(nil, errors.New("provider down"))

		docRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		chunkRepo.On("BulkInsert", mock.Anything, mock.Anything).Return(nil).Once()
		vectorIndex.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()

		uc := newIngestUsecase(dir, docRepo, chunkRepo, vectorIndex, encoder)
		result, err := uc.Ingest(ctx, false)

		assert.NoError(t, err)
		assert.Equal(t, usecase.StatusSuccess, result.Status)
		assert.Equal(t, 1, result.ProcessedFiles)
		assert.Equal(t, 1, result.IndexedChunks)
	})

	t.Run("Ignores non-markdown files", func(t *testing.T) {
		dir := t.TempDir()
		writeCorpusFile(t, dir, "notes.txt", "not part of the corpus")

		docRepo := new(MockDocumentRepository)
		uc := newIngestUsecase(dir, docRepo, new(MockChunkRepository), new(MockVectorIndex), new(MockEmbeddingProvider))
		result, err := uc.Ingest(ctx, false)

		assert.NoError(t, err)
		assert.Equal(t, usecase.StatusSuccess, result.Status)
		assert.Equal(t, "No markdown files found in "+dir, result.Message)
		docRepo.AssertNotCalled(t, "GetBySourceFile", mock.Anything, mock.Anything)
	})

	t.Run("An unreadable subdirectory does not fail the run", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("directory permissions are not enforced for root")
		}

		dir := t.TempDir()
		content := "# Good\n\nReadable chapter."
		path := writeCorpusFile(t, dir, "good.md", content)

		locked := filepath.Join(dir, "locked")
		assert.NoError(t, os.Mkdir(locked, 0o755))
		writeCorpusFile(t, locked, "hidden.md", "# Hidden\n\nUnreachable chapter.")
		assert.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

		docRepo := new(MockDocumentRepository)
		chunkRepo := new(MockChunkRepository)
		vectorIndex := new(MockVectorIndex)
		encoder := new(MockEmbeddingProvider)

		docRepo.On("GetBySourceFile", mock.Anything, path).Return(nil, nil)
		encoder.On("Embed", mock.Anything, content).Return([]float32{0.1}, nil)
		docRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		chunkRepo.On("BulkInsert", mock.Anything, mock.Anything).Return(nil).Once()
		vectorIndex.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()

		uc := newIngestUsecase(dir, docRepo, chunkRepo, vectorIndex, encoder)
		result, err := uc.Ingest(ctx, false)

		assert.NoError(t, err)
		assert.Equal(t, usecase.StatusSuccess, result.Status)
		assert.Equal(t, 1, result.ProcessedFiles)
		docRepo.AssertExpectations(t)
	})

	t.Run("Missing corpus root yields an error status", func(t *testing.T) {
		uc := newIngestUsecase(
			filepath.Join(t.TempDir(), "does-not-exist"),
			new(MockDocumentRepository), new(MockChunkRepository),
			new(MockVectorIndex), new(MockEmbeddingProvider),
		)
		result, err := uc.Ingest(ctx, false)

		assert.NoError(t, err)
		assert.Equal(t, usecase.StatusError, result.Status)
		assert.Contains(t, result.Message, "Ingestion failed")
	})
}

func TestIngestCorpus_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Removes document, chunks and vectors", func(t *testing.T) {
		docID := uuid.New()

		docRepo := new(MockDocumentRepository)
		chunkRepo := new(MockChunkRepository)
		vectorIndex := new(MockVectorIndex)

		docRepo.On("GetByID", mock.Anything, docID).Return(&domain.Document{ID: docID, SourceFile: "book.md"}, nil)
		chunkRepo.On("DeleteByDocumentID", mock.Anything, docID).Return(nil)
		vectorIndex.On("DeleteByDocumentID", mock.Anything, docID).Return(nil)
		docRepo.On("Delete", mock.Anything, docID).Return(nil)

		uc := newIngestUsecase(t.TempDir(), docRepo, chunkRepo, vectorIndex, new(MockEmbeddingProvider))
		err := uc.Delete(ctx, docID)

		assert.NoError(t, err)
		docRepo.AssertExpectations(t)
		chunkRepo.AssertExpectations(t)
		vectorIndex.AssertExpectations(t)
	})

	t.Run("Returns ErrNotFound for an unknown document", func(t *testing.T) {
		docID := uuid.New()

		docRepo := new(MockDocumentRepository)
		docRepo.On("GetByID", mock.Anything, docID).Return(nil, nil)

		uc := newIngestUsecase(t.TempDir(), docRepo, new(MockChunkRepository), new(MockVectorIndex), new(MockEmbeddingProvider))
		err := uc.Delete(ctx, docID)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
