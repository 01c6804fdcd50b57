// Package watch feeds files from a directory into the ingest pipeline
// as they appear or change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/ports/driving"
	"github.com/ragpipe/ragpipe/internal/logger"
)

// Watcher ingests files written to a watched directory. The file name
// relative to the watched directory becomes the document's source ID,
// so rewriting a file re-ingests it under the same ID.
type Watcher struct {
	ingest driving.IngestPipeline
}

// New creates a watcher over the given ingest pipeline.
func New(ingest driving.IngestPipeline) *Watcher {
	return &Watcher{ingest: ingest}
}

// Run watches dir until the context is cancelled. Existing files are
// ingested once at startup, then create and write events trigger
// re-ingestion. Dotfiles and subdirectories are skipped.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	if err := w.ingestExisting(ctx, dir); err != nil {
		return err
	}

	logger.Info("Watching %s for documents", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			w.ingestFile(ctx, dir, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) ingestExisting(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.ingestFile(ctx, dir, filepath.Join(dir, entry.Name()))
	}
	return nil
}

// ingestFile reads and ingests a single file. Failures are logged, not
// fatal: the watcher keeps running.
func (w *Watcher) ingestFile(ctx context.Context, dir, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading %s: %v", path, err)
		return
	}

	sourceID, err := filepath.Rel(dir, path)
	if err != nil {
		sourceID = name
	}

	summary, err := w.ingest.Ingest(ctx, domain.Document{
		SourceID: sourceID,
		Title:    name,
		Text:     string(data),
	})
	if err != nil {
		logger.Warn("Ingesting %s: %v", path, err)
		return
	}
	logger.Info("Ingested %s: %d/%d chunks", sourceID, summary.Succeeded, summary.Attempted)
}
