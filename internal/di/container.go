package di

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"book-rag/internal/adapter/openai"
	"book-rag/internal/adapter/repository"
	"book-rag/internal/domain"
	"book-rag/internal/infra/config"
	"book-rag/internal/infra/httpclient"
	"book-rag/internal/infra/logger"
	"book-rag/internal/usecase"
	"book-rag/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Repositories
	DocRepo     domain.DocumentRepository
	ChunkRepo   domain.ChunkRepository
	SessionRepo domain.SessionRepository
	VectorIndex domain.VectorIndex

	// Adapters
	Embedder  *openai.Embedder
	Generator *openai.Generator

	// Usecases
	IngestUsecase usecase.IngestCorpusUsecase
	AnswerUsecase usecase.AnswerUsecase
	ChatUsecase   usecase.ChatUsecase

	// Worker (nil unless corpus watching is enabled)
	Watcher *worker.CorpusWatcher
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	contextLogger := logger.NewContextLogger("book-rag", log)

	// Repositories
	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	vectorIndex := repository.NewVectorIndex(pool)
	txManager := repository.NewTransactionManager(pool)

	// Shared HTTP client with connection pooling
	openaiHTTP := httpclient.NewPooledClient(cfg.OpenAITimeout)

	// External clients
	embedder := openai.NewEmbedder(openai.EmbedderConfig{
		BaseURL:           cfg.OpenAIBaseURL,
		APIKey:            cfg.OpenAIAPIKey,
		Model:             cfg.EmbeddingModel,
		Dimension:         cfg.EmbeddingDimension,
		Timeout:           cfg.OpenAITimeout,
		RequestsPerSecond: cfg.EmbedRequestsPerSecond,
	}, openaiHTTP)
	generator := openai.NewGenerator(openai.GeneratorConfig{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.ChatModel,
		Timeout: cfg.OpenAITimeout,
	}, openaiHTTP)

	// Domain services
	chunker := domain.NewChunker()
	if cfg.MaxChunkSize > 0 {
		chunker.MaxChunkSize = cfg.MaxChunkSize
	}
	if cfg.ChunkOverlap >= 0 {
		chunker.OverlapSize = cfg.ChunkOverlap
	}

	// Ingestion usecase
	ingestUsecase := usecase.NewIngestCorpusUsecase(
		cfg.CorpusDir, docRepo, chunkRepo, vectorIndex, txManager,
		embedder, chunker, cfg.EmbedConcurrency, contextLogger,
	)

	// Query usecases
	retriever := usecase.NewRetriever(embedder, vectorIndex, log)
	answerUsecase := usecase.NewAnswerUsecase(
		retriever,
		usecase.NewContextAssembler(),
		usecase.NewCitationExtractor(),
		generator,
		usecase.NewGroundingValidator(),
		cfg.RetrieveLimit,
		log,
	)
	chatUsecase := usecase.NewChatUsecase(sessionRepo, answerUsecase, contextLogger)

	// Optional corpus watcher
	var watcher *worker.CorpusWatcher
	if cfg.WatchCorpus {
		watcher = worker.NewCorpusWatcher(cfg.CorpusDir, ingestUsecase, log)
	}

	return &ApplicationComponents{
		DocRepo:       docRepo,
		ChunkRepo:     chunkRepo,
		SessionRepo:   sessionRepo,
		VectorIndex:   vectorIndex,
		Embedder:      embedder,
		Generator:     generator,
		IngestUsecase: ingestUsecase,
		AnswerUsecase: answerUsecase,
		ChatUsecase:   chatUsecase,
		Watcher:       watcher,
	}
}
