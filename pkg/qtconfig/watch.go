package qtconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-reads qconfig.pri whenever it changes on disk.
type Watcher struct {
	qtdir string
	opts  []Option
	o     *options

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher for the Qt installation in qtdir. The same
// options are passed to every Read the watcher performs.
func NewWatcher(qtdir string, opts ...Option) *Watcher {
	return &Watcher{
		qtdir: qtdir,
		opts:  opts,
		o:     newOptions(opts),
	}
}

// Watch starts watching the mkspecs directory and calls onChange with a
// freshly read BuildConfig after every settled change to qconfig.pri.
// Calls to onChange never overlap. Watching stops when ctx is done or
// Close is called.
func (w *Watcher) Watch(ctx context.Context, onChange func(*BuildConfig)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return fmt.Errorf("watcher already started")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(Path(w.qtdir))
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.watcher = watcher
	w.wg.Add(1)
	go w.processEvents(ctx, watcher, onChange)

	w.o.logger.Info().Str("dir", dir).Msg("Started watching qconfig.pri")

	return nil
}

// processEvents debounces file events and triggers reloads.
func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher, onChange func(*BuildConfig)) {
	defer w.wg.Done()

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

	for {
		select {
		case <-ctx.Done():
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "qconfig.pri" || event.Op&relevant == 0 {
				continue
			}

			w.o.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("qconfig.pri changed")

			if timer == nil {
				timer = time.NewTimer(w.o.debounce)
			} else {
				timer.Reset(w.o.debounce)
			}
			reload = timer.C

		case <-reload:
			reload = nil
			onChange(Read(w.qtdir, w.opts...))

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.o.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	watcher := w.watcher
	w.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	w.wg.Wait()
	return err
}
