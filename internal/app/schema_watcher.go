package app

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"dataviews/internal/domain"
)

// SchemaChangedHandler is called with the reloaded schema after the file changes.
type SchemaChangedHandler func(schema *domain.TableSchema)

// SchemaWatcher reloads the schema file whenever it is written. A file that
// fails to parse or validate is logged and skipped; the last good schema stays.
type SchemaWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange SchemaChangedHandler
	logger   *zap.Logger
	done     chan struct{}
}

// NewSchemaWatcher starts watching path.
func NewSchemaWatcher(path string, onChange SchemaChangedHandler, logger *zap.Logger) (*SchemaWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", absPath, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &SchemaWatcher{
		watcher:  watcher,
		path:     absPath,
		onChange: onChange,
		logger:   logger.Named("schema-watcher"),
		done:     make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Close stops the watcher and waits for the loop to exit.
func (w *SchemaWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *SchemaWatcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if absPath, _ := filepath.Abs(event.Name); absPath != w.path {
				continue
			}
			schema, err := LoadSchema(w.path)
			if err != nil {
				w.logger.Warn("schema reload skipped", zap.Error(err))
				continue
			}
			w.logger.Info("schema reloaded", zap.String("path", w.path))
			if w.onChange != nil {
				w.onChange(schema)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
