package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"ollamactl/internal/common/fsutil"
)

// Watch reloads path whenever it is written or replaced and passes the result to fn.
// It watches the parent directory so editors that rename-over the file are seen.
// Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(Config, error)) error {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	base := filepath.Base(abs)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			fn(Load(abs))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fn(Config{}, err)
		}
	}
}
