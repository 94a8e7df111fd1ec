package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/vyusufb/dosya-temizleyici/internal/logging"
	"github.com/vyusufb/dosya-temizleyici/internal/session"
)

// Watcher calls OnChange after filesystem activity under Root settles.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()
	log      zerolog.Logger
}

// New creates a Watcher. debounce is the quiet period required before
// onChange runs.
func New(root string, debounce time.Duration, onChange func()) *Watcher {
	return &Watcher{
		root:     root,
		debounce: debounce,
		onChange: onChange,
		log:      logging.GetLogger("watcher"),
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.ignored(ev.Name) {
				continue
			}
			w.log.Trace().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("event")

			if ev.Has(fsnotify.Create) {
				// New directories need their own watch; errors mean it is
				// not a directory or vanished again.
				_ = w.addTree(fsw, ev.Name)
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.onChange()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

// addTree watches dir and every non-pruned directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && pruned(d.Name()) {
			return fs.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.log.Warn().Err(err).Str("path", path).Msg("cannot watch directory")
		}
		return nil
	})
}

// ignored reports whether path lies in a pruned directory or is one.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if pruned(part) {
			return true
		}
	}
	return false
}

func pruned(name string) bool {
	return (strings.HasPrefix(name, ".") && name != "." && name != "..") || session.IsVaultName(name)
}
