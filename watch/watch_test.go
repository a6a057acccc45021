package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"gamelib/config"
	"gamelib/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReloader struct {
	calls atomic.Int32
}

func (r *countingReloader) ReloadGames() int {
	return int(r.calls.Add(1))
}

func newLayout(t *testing.T) db.Layout {
	t.Helper()
	root := t.TempDir()
	layout := db.Layout{MetadataDir: filepath.Join(root, "metadata"), ContentDir: filepath.Join(root, "content")}
	require.NoError(t, os.MkdirAll(layout.LibrariesDir(), 0o755))
	return layout
}

func startWatcher(t *testing.T, layout db.Layout, r Reloader, onReload func(int)) *Watcher {
	t.Helper()
	w, err := New(layout, r, 50*time.Millisecond)
	require.NoError(t, err)
	w.OnReload = onReload
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	return w
}

func TestWatcher_ReloadsOnLibraryChange(t *testing.T) {
	layout := newLayout(t)
	r := &countingReloader{}
	startWatcher(t, layout, r, nil)

	// A burst of writes collapses into one reload.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(layout.LibraryFile("library"), []byte(`[]`), 0o644))
	}
	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestWatcher_ReloadsOnCollectionsChange(t *testing.T) {
	layout := newLayout(t)
	r := &countingReloader{}
	reloaded := make(chan int, 1)
	startWatcher(t, layout, r, func(count int) {
		select {
		case reloaded <- count:
		default:
		}
	})

	require.NoError(t, os.WriteFile(layout.CollectionsFile(), []byte(`[]`), 0o644))
	select {
	case count := <-reloaded:
		assert.Equal(t, 1, count)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after collections change")
	}
}

// countingDatabase counts reloads of a real store.
type countingDatabase struct {
	*db.Database
	calls atomic.Int32
}

func (d *countingDatabase) ReloadGames() int {
	n := d.Database.ReloadGames()
	d.calls.Add(1)
	return n
}

func TestWatcher_IgnoresStoreWrites(t *testing.T) {
	layout := newLayout(t)
	require.NoError(t, os.WriteFile(layout.LibraryFile("library"), []byte(`[{"id": "g1", "title": "Foo"}]`), 0o644))
	database, err := db.NewDatabase(&config.Config{MetadataDir: layout.MetadataDir, ContentDir: layout.ContentDir})
	require.NoError(t, err)
	d := &countingDatabase{Database: database}
	startWatcher(t, layout, d, nil)

	_, err = d.UpdateGame("g1", map[string]any{"title": "Edited"})
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), d.calls.Load(), "the store's own save does not trigger a reload")

	require.NoError(t, os.WriteFile(layout.LibraryFile("library"), []byte(`[{"id": "g1"}, {"id": "g2"}]`), 0o644))
	require.Eventually(t, func() bool { return d.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, d.GameCount())
}

func TestWatcher_Relevant(t *testing.T) {
	layout := newLayout(t)
	w := &Watcher{layout: layout}

	assert.True(t, w.relevant(layout.LibraryFile("library")))
	assert.True(t, w.relevant(layout.CollectionsFile()))
	assert.False(t, w.relevant(layout.LibraryFile("library")+".tmp"))
	assert.False(t, w.relevant(layout.LibraryFile("library")+".bak"))
	assert.False(t, w.relevant(layout.SettingsFile()))
	assert.False(t, w.relevant(filepath.Join(layout.LibrariesDir(), "notes.txt")))
}

func TestWatcher_CloseStopsPendingReload(t *testing.T) {
	layout := newLayout(t)
	r := &countingReloader{}
	w, err := New(layout, r, time.Hour)
	require.NoError(t, err)

	w.schedule()
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	w.schedule()
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(db.Layout{MetadataDir: filepath.Join(t.TempDir(), "nope")}, &countingReloader{}, time.Second)
	assert.Error(t, err)
}
