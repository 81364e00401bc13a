package settings

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/mzansiplatess/plates-cli/internal/output"
)

// Watch calls fn with the current settings, then again whenever the file
// changes on disk, until ctx is done. Unchanged rewrites are not reported.
func (s *Store) Watch(ctx context.Context, fn func(Settings)) error {
	dir := filepath.Dir(s.Path())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return output.ErrStorage("settings", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return output.ErrStorage("settings watcher", err)
	}
	defer w.Close()

	// Writes replace the file by rename, so watch the directory.
	if err := w.Add(dir); err != nil {
		return output.ErrStorage("settings watcher", err)
	}

	last := s.Read(ctx)
	fn(last)

	name := filepath.Base(s.Path())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			cur := s.Read(ctx)
			if cur == last {
				continue
			}
			last = cur
			fn(cur)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.WithError(err).Warn("settings watcher")
		}
	}
}
