package intake

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/formintake/formintake/internal/fields"
)

const (
	// exportSuffix names the sidecar file written next to each
	// processed document.
	exportSuffix = ".fields.json"

	// Files that appear in the inbox may still be mid-copy; extraction
	// is retried with a fixed delay before the file is given up on.
	watchRetryAttempts = 5
	watchRetryDelay    = 500 * time.Millisecond
)

// Watcher monitors an inbox directory and extracts every supported
// document that lands in it, writing the result next to the source
type Watcher struct {
	service *Service
	dir     string
	watcher *fsnotify.Watcher
	logger  *log.Logger
	stop    chan struct{}
	done    chan struct{}
}

// NewWatcher creates a watcher over the given directory
func NewWatcher(service *Service, dir string, logger *log.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("watch directory cannot be empty")
	}
	if logger == nil {
		logger = log.Default()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize filesystem watcher: %w", err)
	}

	return &Watcher{
		service: service,
		dir:     dir,
		watcher: fsWatcher,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching. Events are processed in a background
// goroutine until Stop is called or the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.logger.Printf("watching %s for documents", w.dir)
	go w.processEvents(ctx)
	return nil
}

// Run watches until the context is canceled, then waits for the event
// loop to drain
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	<-w.done
	return nil
}

// Stop stops the watcher and releases its resources
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		// Already stopped.
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

// Done is closed once the event loop has exited
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// processEvents drains filesystem events until shutdown. Documents are
// handled one at a time, in arrival order.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.handleFile(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watch error: %v", err)
		}
	}
}

// handleFile extracts one document and writes its sidecar export.
// Unsupported files and the watcher's own exports are ignored.
func (w *Watcher) handleFile(ctx context.Context, path string) {
	if strings.HasSuffix(path, exportSuffix) {
		return
	}
	if !w.service.Engine().Supports(path) {
		return
	}

	// Rename events can reference a path that no longer exists.
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	var extracted *ExtractFileResult
	err := retry.Do(
		func() error {
			var err error
			extracted, err = w.service.ExtractFile(ExtractFileRequest{Path: path})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(watchRetryAttempts),
		retry.Delay(watchRetryDelay),
		retry.DelayType(retry.FixedDelay),
	)
	if err != nil {
		w.logger.Printf("failed to extract %s: %v", path, err)
		return
	}

	exportFile := exportPath(path)
	if err := w.writeExport(exportFile, extracted.Result); err != nil {
		w.logger.Printf("failed to export %s: %v", exportFile, err)
		return
	}

	w.logger.Printf("extracted %s: form %s, %d fields -> %s",
		filepath.Base(path), extracted.Result.FormType,
		extracted.Result.FieldCount(), filepath.Base(exportFile))
}

// writeExport writes the JSON export for one extraction
func (w *Watcher) writeExport(path string, result *fields.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := fields.WriteJSON(f, result, false); err != nil {
		return err
	}
	return f.Sync()
}

// exportPath derives the sidecar path: source extension replaced by
// the export suffix
func exportPath(sourcePath string) string {
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + exportSuffix
}
