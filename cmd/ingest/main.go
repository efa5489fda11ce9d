package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"book-rag/internal/di"
	"book-rag/internal/infra"
	"book-rag/internal/infra/config"
	"book-rag/internal/infra/logger"
	"book-rag/internal/usecase"
)

func main() {
	var (
		corpusDir string
		force     bool
	)

	rootCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk, embed and index the markdown corpus",
		Long: "Walks the corpus directory, fingerprints every markdown file and " +
			"indexes new or changed documents. Unchanged files are skipped unless --force is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), corpusDir, force)
		},
	}
	rootCmd.Flags().StringVar(&corpusDir, "corpus", "", "corpus directory (overrides CORPUS_DIR)")
	rootCmd.Flags().BoolVar(&force, "force", false, "re-index files even when unchanged")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(ctx context.Context, corpusDir string, force bool) error {
	cfg := config.Load()
	if corpusDir != "" {
		cfg.CorpusDir = corpusDir
	}
	cfg.WatchCorpus = false

	log := logger.New()
	slog.SetDefault(log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	dbPool, err := infra.NewPostgresDB(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer dbPool.Close()

	components := di.NewApplicationComponents(cfg, dbPool, log)

	if err := components.VectorIndex.EnsureCollection(ctx, cfg.EmbeddingDimension); err != nil {
		return fmt.Errorf("failed to ensure vector collection: %w", err)
	}

	result, err := components.IngestUsecase.Ingest(ctx, force)
	if err != nil {
		return err
	}

	log.Info("ingest_finished",
		"status", result.Status,
		"processed_files", result.ProcessedFiles,
		"indexed_chunks", result.IndexedChunks,
		"message", result.Message,
	)
	if result.Status == usecase.StatusError {
		return fmt.Errorf("%s", result.Message)
	}
	return nil
}
