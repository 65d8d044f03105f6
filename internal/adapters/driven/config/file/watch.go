package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/codetutor/internal/logger"
)

// Watcher reloads a PromptStore whenever a template file in its directory
// changes.
type Watcher struct {
	store    *PromptStore
	fsw      *fsnotify.Watcher
	onReload func(name string)
	done     chan struct{}
	closeMu  sync.Once
}

// WatchPrompts starts watching the store's directory. onReload, if not nil,
// is called with the prompt name after each reload.
func WatchPrompts(store *PromptStore, onReload func(name string)) (*Watcher, error) {
	if err := os.MkdirAll(store.Dir(), 0700); err != nil {
		return nil, fmt.Errorf("create prompt directory: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(store.Dir()); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", store.Dir(), err)
	}

	w := &Watcher{
		store:    store,
		fsw:      fsw,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeMu.Do(func() {
		err = w.fsw.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			name, reload := promptChanged(event)
			if !reload {
				continue
			}
			w.store.Reload()
			logger.Debug("prompt %q changed (%s), cache cleared", name, event.Op)
			if w.onReload != nil {
				w.onReload(name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

// promptChanged reports whether event touches a template file, and which.
// Chmod events and non-template files are ignored.
func promptChanged(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	base := filepath.Base(event.Name)
	if filepath.Ext(base) != promptExt || base[0] == '.' {
		return "", false
	}
	return base[:len(base)-len(promptExt)], true
}
