package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchFile calls reload whenever path is written or replaced, until ctx
// is done. The parent directory is watched so editors that save by rename
// are noticed too. Reload errors are logged and the previous state kept.
func watchFile(ctx context.Context, path string, reload func() error, log *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create)) {
				continue
			}
			if err := reload(); err != nil {
				log.Warn("failed to reload file, keeping previous state", "path", path, "error", err)
				continue
			}
			log.Info("reloaded file", "path", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", "path", path, "error", err)
		}
	}
}
