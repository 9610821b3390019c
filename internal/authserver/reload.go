package authserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dicklesworthstone/loginchallenge/internal/watcher"
)

// WatchUsersFile reloads store whenever path is rewritten, until ctx is done.
// A file that fails to parse or validate leaves the current accounts in
// place. Removal is ignored.
func WatchUsersFile(ctx context.Context, path string, store *UserStore, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := watcher.New(path)
	if err != nil {
		return fmt.Errorf("watch users file: %w", err)
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Type != watcher.EventFileWritten {
				logger.Warn("users file removed; keeping current accounts", "path", ev.Path)
				continue
			}
			if err := reloadUsers(path, store); err != nil {
				logger.Error("reload users failed", "path", path, "error", err)
				continue
			}
			logger.Info("users reloaded", "path", path, "users", store.Len())
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			logger.Warn("users watcher error", "error", err)
		}
	}
}

func reloadUsers(path string, store *UserStore) error {
	records, err := LoadUsersFile(path)
	if err != nil {
		return err
	}
	return store.Replace(records)
}
