package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"book-rag/internal/domain"
	"book-rag/internal/infra/logger"
)

const (
	// StatusSuccess marks a completed ingestion run, even when individual
	// files failed.
	StatusSuccess = "success"
	// StatusError marks a run where the corpus root could not be read.
	StatusError = "error"
)

// IngestResult aggregates the outcome of one ingestion run.
type IngestResult struct {
	Status         string
	ProcessedFiles int
	IndexedChunks  int
	Message        string
}

// IngestCorpusUsecase discovers corpus files, fingerprints them, skips
// unchanged ones, and chunks, embeds and indexes the rest.
type IngestCorpusUsecase interface {
	// Ingest walks the corpus root and processes every markdown file.
	// Per-file failures are logged and do not abort the run.
	Ingest(ctx context.Context, force bool) (*IngestResult, error)

	// Delete removes a document, its chunks and its vector points.
	// Returns domain.ErrNotFound when the document does not exist.
	Delete(ctx context.Context, documentID uuid.UUID) error
}

type ingestCorpusUsecase struct {
	corpusDir        string
	docRepo          domain.DocumentRepository
	chunkRepo        domain.ChunkRepository
	vectorIndex      domain.VectorIndex
	txManager        domain.TransactionManager
	encoder          domain.EmbeddingProvider
	chunker          *domain.Chunker
	embedConcurrency int
	contextLogger    *logger.ContextLogger
}

// NewIngestCorpusUsecase wires the ingestion pipeline. embedConcurrency
// bounds concurrent embedding calls per document; 1 keeps them sequential.
func NewIngestCorpusUsecase(
	corpusDir string,
	docRepo domain.DocumentRepository,
	chunkRepo domain.ChunkRepository,
	vectorIndex domain.VectorIndex,
	txManager domain.TransactionManager,
	encoder domain.EmbeddingProvider,
	chunker *domain.Chunker,
	embedConcurrency int,
	contextLogger *logger.ContextLogger,
) IngestCorpusUsecase {
	if embedConcurrency <= 0 {
		embedConcurrency = 1
	}
	return &ingestCorpusUsecase{
		corpusDir:        corpusDir,
		docRepo:          docRepo,
		chunkRepo:        chunkRepo,
		vectorIndex:      vectorIndex,
		txManager:        txManager,
		encoder:          encoder,
		chunker:          chunker,
		embedConcurrency: embedConcurrency,
		contextLogger:    contextLogger,
	}
}

func (u *ingestCorpusUsecase) Ingest(ctx context.Context, force bool) (*IngestResult, error) {
	ctx = logger.WithStage(ctx, "ingest")
	log := u.contextLogger.WithContext(ctx)

	files, err := u.listMarkdownFiles(ctx)
	if err != nil {
		log.Error("ingest_walk_failed", "corpus_dir", u.corpusDir, "error", err)
		return &IngestResult{
			Status:  StatusError,
			Message: fmt.Sprintf("Ingestion failed: %v", err),
		}, nil
	}

	if len(files) == 0 {
		return &IngestResult{
			Status:  StatusSuccess,
			Message: fmt.Sprintf("No markdown files found in %s", u.corpusDir),
		}, nil
	}

	log.Info("ingest_started", "corpus_dir", u.corpusDir, "files", len(files), "force", force)

	processed := 0
	indexed := 0
	for _, file := range files {
		fctx := logger.WithSourceFile(ctx, file)
		chunks, err := u.processFile(fctx, file, force)
		if err != nil {
			u.contextLogger.WithContext(fctx).Error("ingest_file_failed", "error", err)
			continue
		}
		processed++
		indexed += chunks
		u.contextLogger.WithContext(fctx).Info("ingest_file_completed", "chunks", chunks)
	}

	return &IngestResult{
		Status:         StatusSuccess,
		ProcessedFiles: processed,
		IndexedChunks:  indexed,
		Message:        fmt.Sprintf("Successfully processed %d files and indexed %d chunks", processed, indexed),
	}, nil
}

// processFile ingests one corpus file. The document's records and vector
// points are written as a single transaction after every embedding for the
// document has succeeded, so a partial failure never leaves a
// partially-indexed document visible.
func (u *ingestCorpusUsecase) processFile(ctx context.Context, file string, force bool) (int, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	content := string(raw)
	if err := domain.ValidateDocumentContent(content); err != nil {
		return 0, err
	}

	title := domain.ExtractTitle(content)
	headers := domain.ExtractHeaders(content)
	hash := domain.Fingerprint(raw)

	doc, err := u.docRepo.GetBySourceFile(ctx, file)
	if err != nil {
		return 0, fmt.Errorf("failed to look up document: %w", err)
	}

	if doc != nil && doc.ContentHash == hash && !force {
		u.contextLogger.WithContext(ctx).Debug("ingest_file_unchanged")
		return 0, nil
	}

	chunks := u.chunker.Split(content)

	embeddings, err := u.embedChunks(logger.WithStage(ctx, "embedding"), chunks)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	isNew := doc == nil
	if isNew {
		doc = &domain.Document{
			ID:          uuid.New(),
			SourceFile:  file,
			Title:       title,
			ContentHash: hash,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	} else {
		doc.Title = title
		doc.ContentHash = hash
		doc.UpdatedAt = now
	}
	ctx = logger.WithDocumentID(ctx, doc.ID.String())

	records := make([]domain.DocumentChunk, 0, len(chunks))
	points := make([]domain.VectorPoint, 0, len(chunks))
	for i, chunk := range chunks {
		key := fmt.Sprintf("%s-%d", doc.ID, i)
		metadata := domain.ChunkMetadata{
			Headers: headers,
			Section: fmt.Sprintf("chunk_%d", i),
		}

		records = append(records, domain.DocumentChunk{
			ID:          uuid.New(),
			DocumentID:  doc.ID,
			ChunkIndex:  i,
			Content:     chunk,
			EmbeddingID: key,
			Metadata:    metadata,
			CreatedAt:   now,
		})
		points = append(points, domain.VectorPoint{
			Key:        key,
			Embedding:  embeddings[i],
			DocumentID: doc.ID,
			SourceFile: file,
			ChunkIndex: i,
			Title:      title,
			Content:    chunk,
			Metadata:   metadata,
		})
	}

	err = u.txManager.RunInTx(logger.WithStage(ctx, "persisting"), func(ctx context.Context) error {
		if isNew {
			if err := u.docRepo.Create(ctx, doc); err != nil {
				return fmt.Errorf("failed to create document: %w", err)
			}
		} else {
			if err := u.docRepo.Update(ctx, doc); err != nil {
				return fmt.Errorf("failed to update document: %w", err)
			}
			if err := u.chunkRepo.DeleteByDocumentID(ctx, doc.ID); err != nil {
				return fmt.Errorf("failed to delete old chunks: %w", err)
			}
			if err := u.vectorIndex.DeleteByDocumentID(ctx, doc.ID); err != nil {
				return fmt.Errorf("failed to delete old vectors: %w", err)
			}
		}

		if err := u.chunkRepo.BulkInsert(ctx, records); err != nil {
			return fmt.Errorf("failed to insert chunks: %w", err)
		}
		if err := u.vectorIndex.Upsert(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert vectors: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(chunks), nil
}

// embedChunks obtains one embedding per chunk under a bounded worker pool.
// Order is preserved; the first failure cancels the rest.
func (u *ingestCorpusUsecase) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	embeddings := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.embedConcurrency)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			vector, err := u.encoder.Embed(gctx, chunk)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", i, err)
			}
			embeddings[i] = vector
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (u *ingestCorpusUsecase) Delete(ctx context.Context, documentID uuid.UUID) error {
	ctx = logger.WithDocumentID(ctx, documentID.String())

	return u.txManager.RunInTx(ctx, func(ctx context.Context) error {
		doc, err := u.docRepo.GetByID(ctx, documentID)
		if err != nil {
			return fmt.Errorf("failed to look up document: %w", err)
		}
		if doc == nil {
			return domain.ErrNotFound
		}

		if err := u.chunkRepo.DeleteByDocumentID(ctx, documentID); err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
		if err := u.vectorIndex.DeleteByDocumentID(ctx, documentID); err != nil {
			return fmt.Errorf("failed to delete vectors: %w", err)
		}
		if err := u.docRepo.Delete(ctx, documentID); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}

		u.contextLogger.WithContext(logger.WithSourceFile(ctx, doc.SourceFile)).Info("document_deleted")
		return nil
	})
}

// listMarkdownFiles walks the corpus root recursively and returns every file
// with a recognized extension. Only a failure to read the root itself aborts
// the walk; unreadable entries below it are logged and skipped so one bad
// directory cannot fail the whole run.
func (u *ingestCorpusUsecase) listMarkdownFiles(ctx context.Context) ([]string, error) {
	var files []string

	err := filepath.WalkDir(u.corpusDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == u.corpusDir {
				return err
			}
			u.contextLogger.WithContext(ctx).Warn("ingest_walk_entry_skipped", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if domain.IsMarkdownFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
