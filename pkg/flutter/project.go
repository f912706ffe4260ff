package flutter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/flutterfly/devbridge/pkg/util"
)

// ManifestName is the file that marks a Flutter project root
const ManifestName = "pubspec.yaml"

// DetectProject reports whether dir contains a pubspec.yaml
func DetectProject(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ManifestName))
	return err == nil && !info.IsDir()
}

// Watcher reports when a directory gains or loses its pubspec.yaml
type Watcher struct {
	dir      string
	onChange func(present bool)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
	present bool
}

// NewWatcher creates a watcher for dir; onChange is called on every presence change
func NewWatcher(dir string, onChange func(present bool)) *Watcher {
	return &Watcher{dir: dir, onChange: onChange}
}

// Present returns the last observed project presence
func (w *Watcher) Present() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.present
}

// Start begins watching. Calling Start twice is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.watcher = watcher
	w.cancel = cancel
	w.done = make(chan struct{})
	w.present = DetectProject(w.dir)

	go w.eventLoop(watchCtx, watcher, w.done)

	util.GetLogger().V(1).Info("Watching for project manifest", "dir", w.dir, "present", w.present)
	return nil
}

// Stop terminates watching
func (w *Watcher) Stop() error {
	w.mu.Lock()
	watcher, cancel, done := w.watcher, w.cancel, w.done
	w.watcher, w.cancel, w.done = nil, nil, nil
	w.mu.Unlock()

	if watcher == nil {
		return nil
	}
	cancel()
	err := watcher.Close()
	<-done
	return err
}

func (w *Watcher) eventLoop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	log := util.GetLogger()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != ManifestName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			w.update(DetectProject(w.dir))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				log.Error(err, "Project watcher error")
				continue
			}
			w.update(DetectProject(w.dir))
		}
	}
}

func (w *Watcher) update(present bool) {
	w.mu.Lock()
	changed := present != w.present
	w.present = present
	w.mu.Unlock()

	if changed && w.onChange != nil {
		w.onChange(present)
	}
}
