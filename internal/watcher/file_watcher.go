// Package watcher reports debounced batches of changed source files.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// FileWatcher monitors files and directories and fires a callback with the
// set of changed files once events stop arriving for the debounce period.
type FileWatcher interface {
	// Start begins watching, calling callback with debounced file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the watcher and releases its resources.
	Stop() error

	// Pause stops firing callbacks but keeps accumulating events.
	Pause()

	// Resume resumes firing callbacks. Events accumulated during the pause fire immediately.
	Resume()
}

// Options configures a FileWatcher.
type Options struct {
	// Debounce is the quiet period before the callback fires.
	Debounce time.Duration

	// Extensions limits events under watched directories to these file
	// extensions (".c", ".py"). Empty means every file.
	Extensions []string
}

type fileWatcher struct {
	watcher    *fsnotify.Watcher
	files      map[string]bool // explicitly watched files
	hasDirs    bool
	extensions map[string]bool
	debounce   time.Duration
	callback   func(files []string)
	ctx        context.Context
	cancel     context.CancelFunc

	pausedMu sync.RWMutex
	paused   bool

	accumulatedMu sync.Mutex
	accumulated   map[string]bool

	timerMu       sync.Mutex
	debounceTimer *time.Timer

	stopOnce sync.Once
	doneCh   chan struct{}
}

// NewFileWatcher watches each path. Directories are watched recursively and
// filtered by extension; a file is watched through its parent directory and
// only its own events are reported.
func NewFileWatcher(paths []string, opts Options) (FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &fileWatcher{
		watcher:     watcher,
		files:       make(map[string]bool),
		extensions:  make(map[string]bool),
		debounce:    opts.Debounce,
		accumulated: make(map[string]bool),
		doneCh:      make(chan struct{}),
	}
	if fw.debounce <= 0 {
		fw.debounce = DefaultDebounce
	}
	for _, ext := range opts.Extensions {
		fw.extensions[ext] = true
	}

	for _, p := range paths {
		if err := fw.add(p); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	return fw, nil
}

func (fw *fileWatcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", path, err)
	}
	if info.IsDir() {
		return fw.addDirectoriesRecursively(abs)
	}

	fw.files[abs] = true
	if err := fw.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("cannot watch %s: %w", path, err)
	}
	return nil
}

// Start begins watching for file changes.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the file watcher. It is safe to call more than once.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// Pause stops firing callbacks but continues accumulating events.
func (fw *fileWatcher) Pause() {
	fw.pausedMu.Lock()
	defer fw.pausedMu.Unlock()
	fw.paused = true
}

// Resume resumes firing callbacks and flushes anything accumulated while paused.
func (fw *fileWatcher) Resume() {
	fw.pausedMu.Lock()
	wasPaused := fw.paused
	fw.paused = false
	fw.pausedMu.Unlock()

	if wasPaused {
		fw.flush()
	}
}

func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-fw.ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && fw.hasDirs {
					if err := fw.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.accumulatedMu.Lock()
			fw.accumulated[event.Name] = true
			fw.accumulatedMu.Unlock()

			fw.resetDebounceTimer(fireCh)

		case <-fireCh:
			fw.pausedMu.RLock()
			paused := fw.paused
			fw.pausedMu.RUnlock()
			if !paused {
				fw.flush()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// flush hands the accumulated files to the callback in sorted order.
func (fw *fileWatcher) flush() {
	fw.accumulatedMu.Lock()
	if len(fw.accumulated) == 0 {
		fw.accumulatedMu.Unlock()
		return
	}
	files := make([]string, 0, len(fw.accumulated))
	for file := range fw.accumulated {
		files = append(files, file)
	}
	fw.accumulated = make(map[string]bool)
	fw.accumulatedMu.Unlock()

	sort.Strings(files)
	if fw.callback != nil {
		fw.callback(files)
	}
}

func (fw *fileWatcher) resetDebounceTimer(fireCh chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debounce, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

func (fw *fileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
		fw.debounceTimer = nil
	}
}

// shouldProcessEvent keeps writes, creates, removes and renames of watched
// files: explicitly named files always, others by extension.
func (fw *fileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if fw.files[event.Name] {
		return true
	}
	if fw.watchesOnlyFiles() {
		return false
	}
	if len(fw.extensions) == 0 {
		return true
	}
	return fw.extensions[filepath.Ext(event.Name)]
}

// watchesOnlyFiles reports whether every watched path was a file, in which case
// siblings in the parent directories are not of interest.
func (fw *fileWatcher) watchesOnlyFiles() bool {
	return len(fw.files) > 0 && !fw.hasDirs
}

func (fw *fileWatcher) addDirectoriesRecursively(rootPath string) error {
	fw.hasDirs = true
	return filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
