package worker

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"book-rag/internal/domain"
	"book-rag/internal/usecase"
)

const (
	defaultDebounce = 2 * time.Second
	ingestTimeout   = 10 * time.Minute
)

// CorpusWatcher watches the corpus directory and triggers re-ingestion when
// markdown files change. Events are debounced so a burst of writes (editor
// saves, rsync) produces a single ingestion run.
type CorpusWatcher struct {
	corpusDir     string
	ingestUsecase usecase.IngestCorpusUsecase
	logger        *slog.Logger
	debounce      time.Duration
	stopChan      chan struct{}
	doneChan      chan struct{}
}

func NewCorpusWatcher(
	corpusDir string,
	ingestUsecase usecase.IngestCorpusUsecase,
	logger *slog.Logger,
) *CorpusWatcher {
	return &CorpusWatcher{
		corpusDir:     corpusDir,
		ingestUsecase: ingestUsecase,
		logger:        logger,
		debounce:      defaultDebounce,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

// Start begins watching. It returns an error if the corpus root cannot be
// registered; watch failures after startup are logged instead.
func (w *CorpusWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.addRecursive(watcher, w.corpusDir); err != nil {
		_ = watcher.Close()
		return err
	}

	w.logger.Info("Starting CorpusWatcher", "corpus_dir", w.corpusDir)
	go w.run(watcher)
	return nil
}

func (w *CorpusWatcher) Stop() {
	w.logger.Info("Stopping CorpusWatcher")
	close(w.stopChan)
	<-w.doneChan
}

func (w *CorpusWatcher) run(watcher *fsnotify.Watcher) {
	defer close(w.doneChan)
	defer watcher.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			// New subdirectories must be registered to keep the watch recursive.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(watcher, event.Name)
				}
			}
			w.logger.Debug("corpus_event", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("corpus_watch_error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			w.reingest()
		}
	}
}

// relevant filters events down to markdown writes, creations, renames and
// removals. Directory creations pass through so they can be registered;
// creations of other files (editor scratch files, temp downloads) do not
// trigger a run.
func (w *CorpusWatcher) relevant(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) && event.Op&^fsnotify.Chmod == 0 {
		return false
	}
	if domain.IsMarkdownFile(event.Name) {
		return true
	}
	if event.Op.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		return err == nil && info.IsDir()
	}
	return false
}

func (w *CorpusWatcher) reingest() {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	w.logger.Info("corpus_changed", "corpus_dir", w.corpusDir)
	result, err := w.ingestUsecase.Ingest(ctx, false)
	if err != nil {
		w.logger.Error("corpus_reingest_failed", "error", err)
		return
	}
	w.logger.Info("corpus_reingest_completed",
		"status", result.Status,
		"processed_files", result.ProcessedFiles,
		"indexed_chunks", result.IndexedChunks,
	)
}

func (w *CorpusWatcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
