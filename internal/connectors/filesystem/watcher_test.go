package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

type fakeSink struct {
	mu       sync.Mutex
	ingested []string
	deleted  []string
	next     int
	failFor  string
}

func (f *fakeSink) IngestFile(_ context.Context, path string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if filepath.Base(path) == f.failFor {
		return nil, domain.ErrUnsupportedType
	}
	f.next++
	f.ingested = append(f.ingested, path)
	return &domain.Document{ID: "doc-" + string(rune('0'+f.next)), Filename: filepath.Base(path)}, nil
}

func (f *fakeSink) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSink) ingestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ingested)
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for watch event")
	}
	return Event{}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.md"), []byte("beta"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0o644))

	sink := &fakeSink{failFor: "image.png"}
	w := New(dir, sink)

	events, err := w.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 2, sink.ingestCount())

	var failed int
	for _, ev := range events {
		if ev.Err != nil {
			failed++
			assert.ErrorIs(t, ev.Err, domain.ErrUnsupportedType)
		}
	}
	assert.Equal(t, 1, failed)

	_, ok := w.Tracked(filepath.Join(dir, "a.txt"))
	assert.True(t, ok)
}

func TestScan_MissingRoot(t *testing.T) {
	w := New("/non/existent/path", &fakeSink{})

	_, err := w.Scan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root path error")
}

func TestWatch_CreateModifyRemove(t *testing.T) {
	dir := t.TempDir()
	sink := &fakeSink{}
	w := New(dir, sink).WithDebounce(20 * time.Millisecond)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := w.Watch(ctx)
	require.NoError(t, err)

	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))

	ev := nextEvent(t, ch)
	assert.Equal(t, OpIngested, ev.Op)
	assert.Equal(t, path, ev.Path)
	require.NotNil(t, ev.Document)
	firstID := ev.Document.ID

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))
	ev = nextEvent(t, ch)
	assert.Equal(t, OpIngested, ev.Op)
	assert.NotEqual(t, firstID, ev.Document.ID)

	require.NoError(t, os.Remove(path))
	ev = nextEvent(t, ch)
	assert.Equal(t, OpRemoved, ev.Op)
	assert.Equal(t, path, ev.Path)

	sink.mu.Lock()
	assert.Contains(t, sink.deleted, firstID)
	sink.mu.Unlock()
	_, tracked := w.Tracked(path)
	assert.False(t, tracked)
}

func TestWatch_Debounces(t *testing.T) {
	dir := t.TempDir()
	sink := &fakeSink{}
	w := New(dir, sink).WithDebounce(150 * time.Millisecond)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := w.Watch(ctx)
	require.NoError(t, err)

	path := filepath.Join(dir, "burst.txt")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	ev := nextEvent(t, ch)
	assert.Equal(t, OpIngested, ev.Op)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected second event: %+v", extra)
	case <-time.After(400 * time.Millisecond):
	}
	assert.Equal(t, 1, sink.ingestCount())
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	w := New(t.TempDir(), &fakeSink{})
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := w.Watch(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel did not close after context cancellation")
	}
}

func TestWatch_Errors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		ch, err := New("/non/existent/path", &fakeSink{}).Watch(context.Background())
		assert.Nil(t, ch)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closed", func(t *testing.T) {
		w := New(t.TempDir(), &fakeSink{})
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())

		ch, err := w.Watch(context.Background())
		assert.Nil(t, ch)
		assert.True(t, errors.Is(err, ErrClosed))
	})
}

func TestHandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.txt")
	require.NoError(t, os.WriteFile(file, []byte("content"), 0o644))
	hidden := filepath.Join(dir, ".hidden.txt")
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0o644))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	w := New(dir, &fakeSink{})

	tests := []struct {
		name   string
		path   string
		op     fsnotify.Op
		want   changeKind
		wantOK bool
	}{
		{"create file", file, fsnotify.Create, changeUpsert, true},
		{"write file", file, fsnotify.Write, changeUpsert, true},
		{"write and chmod", file, fsnotify.Write | fsnotify.Chmod, changeUpsert, true},
		{"remove", filepath.Join(dir, "gone.txt"), fsnotify.Remove, changeRemove, true},
		{"rename", filepath.Join(dir, "old.txt"), fsnotify.Rename, changeRemove, true},
		{"chmod only", file, fsnotify.Chmod, 0, false},
		{"directory", sub, fsnotify.Create, 0, false},
		{"hidden", hidden, fsnotify.Write, 0, false},
		{"vanished before stat", filepath.Join(dir, "tmp.txt"), fsnotify.Create, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := w.handleFsEvent(nil, fsnotify.Event{Name: tt.path, Op: tt.op})
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"dir/.git/config", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/../file", false},
		{"", false},
		{"file.hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}
