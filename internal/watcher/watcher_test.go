package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPoll = 10 * time.Millisecond

func newScratch(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scratch.json")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0600))
	return path
}

func TestObserve_WriteSetsSignal(t *testing.T) {
	path := newScratch(t)

	w, err := Observe(path, WithPollInterval(testPoll))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"name": "x"}`), 0600))

	assert.Eventually(t, w.Written, time.Second, testPoll)
	assert.True(t, w.Stop())
}

func TestObserve_RenameOverSetsSignal(t *testing.T) {
	path := newScratch(t)

	w, err := Observe(path, WithPollInterval(testPoll))
	require.NoError(t, err)
	defer w.Stop()

	tmp := filepath.Join(filepath.Dir(path), ".scratch.json.swp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"name": "y"}`), 0600))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, w.Written, time.Second, testPoll)
}

func TestObserve_NoEventsStopsPromptly(t *testing.T) {
	path := newScratch(t)

	w, err := Observe(path, WithPollInterval(testPoll))
	require.NoError(t, err)

	stopped := make(chan bool)
	go func() { stopped <- w.Stop() }()

	select {
	case written := <-stopped:
		assert.False(t, written)
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestObserve_IgnoresOtherPaths(t *testing.T) {
	path := newScratch(t)
	dir := filepath.Dir(path)

	w, err := Observe(path, WithPollInterval(testPoll))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.json.bak"), []byte("{}"), 0600))
	time.Sleep(10 * testPoll)

	assert.False(t, w.Stop())
}

func TestObserve_ChmodIsNotAWrite(t *testing.T) {
	path := newScratch(t)

	w, err := Observe(path, WithPollInterval(testPoll))
	require.NoError(t, err)

	require.NoError(t, os.Chmod(path, 0644))
	time.Sleep(10 * testPoll)

	assert.False(t, w.Stop())
}

func TestObserve_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "scratch.json")

	w, err := Observe(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubscribe)
	assert.Nil(t, w)
}

func TestWatch_StopIsIdempotent(t *testing.T) {
	path := newScratch(t)

	w, err := Observe(path, WithPollInterval(testPoll))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	assert.Eventually(t, w.Written, time.Second, testPoll)

	assert.True(t, w.Stop())
	assert.True(t, w.Stop())
	assert.True(t, w.Written(), "write signal must not reset after stop")
}

func TestObserve_RelativePath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile("scratch.json", []byte("{}"), 0600))

	w, err := Observe("scratch.json", WithPollInterval(testPoll))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.json"), []byte("{ }"), 0600))
	assert.Eventually(t, w.Written, time.Second, testPoll)
	w.Stop()
}

func TestWatch_OverflowIsReported(t *testing.T) {
	path := newScratch(t)

	w, err := Observe(path, WithPollInterval(testPoll))
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Err())

	w.handleError(errors.New("transient"))
	assert.NoError(t, w.Err())

	w.handleError(fmt.Errorf("inotify: %w", fsnotify.ErrEventOverflow))
	err = w.Err()
	assert.ErrorIs(t, err, ErrSubscribe)
	assert.ErrorIs(t, err, fsnotify.ErrEventOverflow)
}
