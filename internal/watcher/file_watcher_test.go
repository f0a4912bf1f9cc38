package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileWatcher:
// - NewFileWatcher fails for a missing path
// - A single write fires the callback after the debounce period
// - Rapid writes to several files are coalesced into one sorted batch
// - Extension filtering applies to watched directories
// - A watched file reports only its own events, not its siblings'
// - New subdirectories are watched automatically
// - Pause accumulates; Resume flushes
// - Stop is idempotent and works without Start

const testDebounce = 50 * time.Millisecond

type batches struct {
	mu  sync.Mutex
	got [][]string
	ch  chan struct{}
}

func newBatches() *batches {
	return &batches{ch: make(chan struct{}, 16)}
}

func (b *batches) callback(files []string) {
	b.mu.Lock()
	b.got = append(b.got, files)
	b.mu.Unlock()
	b.ch <- struct{}{}
}

func (b *batches) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-b.ch:
	case <-time.After(3 * time.Second):
		t.Fatal("callback not fired")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.got[len(b.got)-1]
}

func (b *batches) none(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case <-b.ch:
		b.mu.Lock()
		defer b.mu.Unlock()
		t.Fatalf("unexpected callback: %v", b.got[len(b.got)-1])
	case <-time.After(within):
	}
}

func absTemp(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	return dir
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func start(t *testing.T, paths []string, opts Options) (FileWatcher, *batches) {
	t.Helper()
	opts.Debounce = testDebounce
	fw, err := NewFileWatcher(paths, opts)
	require.NoError(t, err)
	t.Cleanup(func() { fw.Stop() })

	b := newBatches()
	require.NoError(t, fw.Start(context.Background(), b.callback))
	return fw, b
}

func TestNewFileWatcher_MissingPath(t *testing.T) {
	t.Parallel()

	fw, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "nope")}, Options{})
	assert.Error(t, err)
	assert.Nil(t, fw)
}

func TestFileWatcher_SingleWrite(t *testing.T) {
	t.Parallel()

	dir := absTemp(t)
	_, b := start(t, []string{dir}, Options{Extensions: []string{".c"}})

	file := filepath.Join(dir, "a.c")
	write(t, file, "int x;\n")

	assert.Equal(t, []string{file}, b.wait(t))
}

func TestFileWatcher_CoalescesBatch(t *testing.T) {
	t.Parallel()

	dir := absTemp(t)
	_, b := start(t, []string{dir}, Options{Extensions: []string{".c"}})

	first := filepath.Join(dir, "b.c")
	second := filepath.Join(dir, "a.c")
	write(t, first, "int x;\n")
	write(t, second, "int y;\n")
	write(t, first, "int z;\n")

	assert.Equal(t, []string{second, first}, b.wait(t))
}

func TestFileWatcher_ExtensionFilter(t *testing.T) {
	t.Parallel()

	dir := absTemp(t)
	_, b := start(t, []string{dir}, Options{Extensions: []string{".py"}})

	write(t, filepath.Join(dir, "notes.txt"), "ignored\n")
	b.none(t, 4*testDebounce)

	file := filepath.Join(dir, "m.py")
	write(t, file, "x = 1\n")
	assert.Equal(t, []string{file}, b.wait(t))
}

func TestFileWatcher_WatchedFileOnly(t *testing.T) {
	t.Parallel()

	dir := absTemp(t)
	fixture := filepath.Join(dir, "fixture.cpp")
	write(t, fixture, "int x;\n")
	_, b := start(t, []string{fixture}, Options{Extensions: []string{".cpp"}})

	write(t, filepath.Join(dir, "sibling.cpp"), "int y;\n")
	b.none(t, 4*testDebounce)

	write(t, fixture, "int z;\n")
	assert.Equal(t, []string{fixture}, b.wait(t))
}

func TestFileWatcher_NewSubdirectory(t *testing.T) {
	t.Parallel()

	dir := absTemp(t)
	_, b := start(t, []string{dir}, Options{Extensions: []string{".go"}})

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Let the watcher register the directory before writing into it.
	time.Sleep(4 * testDebounce)

	file := filepath.Join(sub, "x.go")
	write(t, file, "package pkg\n")

	var got []string
	for !contains(got, file) {
		got = b.wait(t)
	}
	assert.Contains(t, got, file)
}

func TestFileWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	dir := absTemp(t)
	fw, b := start(t, []string{dir}, Options{Extensions: []string{".rb"}})

	fw.Pause()
	file := filepath.Join(dir, "x.rb")
	write(t, file, "X = 1\n")
	b.none(t, 4*testDebounce)

	fw.Resume()
	assert.Equal(t, []string{file}, b.wait(t))
}

func TestFileWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	fw, err := NewFileWatcher([]string{t.TempDir()}, Options{})
	require.NoError(t, err)

	require.NoError(t, fw.Stop())
	require.NoError(t, fw.Stop())
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
