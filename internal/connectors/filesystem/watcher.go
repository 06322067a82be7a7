// Package filesystem keeps a directory tree in sync with the knowledge base.
//
// Files are ingested when created or written and their documents deleted
// when the file is removed. Bursts of events for one path are coalesced by
// a debounce timer so an editor's save sequence yields a single ingest.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned when using a closed watcher.
var ErrClosed = errors.New("watcher closed")

// DocumentSink receives the files the watcher picks up.
type DocumentSink interface {
	IngestFile(ctx context.Context, path string) (*domain.Document, error)
	Delete(ctx context.Context, documentID string) error
}

// Op describes what the watcher did for a path.
type Op string

// Watcher operations.
const (
	OpIngested Op = "ingested"
	OpRemoved  Op = "removed"
)

// Event reports the outcome of processing one path.
type Event struct {
	Op   Op
	Path string

	// Document is set for successful ingests.
	Document *domain.Document

	// DocumentID is the removed document for OpRemoved.
	DocumentID string

	Err error
}

type changeKind int

const (
	changeUpsert changeKind = iota + 1
	changeRemove
)

// Watcher ingests files under a root directory.
type Watcher struct {
	root     string
	sink     DocumentSink
	debounce time.Duration

	mu     sync.Mutex
	docs   map[string]string // path -> document ID
	fsw    *fsnotify.Watcher
	closed bool
}

// New creates a watcher for rootPath.
func New(rootPath string, sink DocumentSink) *Watcher {
	return &Watcher{
		root:     rootPath,
		sink:     sink,
		debounce: DefaultDebounce,
		docs:     make(map[string]string),
	}
}

// WithDebounce overrides the quiet period.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

func (w *Watcher) checkRoot() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.root)
	}
	return nil
}

// Scan ingests every visible file currently under the root.
func (w *Watcher) Scan(ctx context.Context) ([]Event, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	var events []Event
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		events = append(events, w.apply(ctx, path, changeUpsert))
		return nil
	})
	if err != nil {
		return events, fmt.Errorf("scan %s: %w", w.root, err)
	}
	return events, nil
}

// Watch starts watching the root. The returned channel is closed when ctx
// is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.addTree(fsw, w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.fsw = fsw

	out := make(chan Event)
	go w.loop(ctx, fsw, out)
	return out, nil
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.isHidden(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event) {
	defer close(out)

	timers := make(map[string]*time.Timer)
	kinds := make(map[string]changeKind)
	due := make(chan string)
	done := make(chan struct{})
	defer func() {
		close(done)
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			kind, ok := w.handleFsEvent(fsw, ev)
			if !ok {
				continue
			}
			kinds[ev.Name] = kind
			if t, exists := timers[ev.Name]; exists {
				t.Reset(w.debounce)
				continue
			}
			path := ev.Name
			timers[path] = time.AfterFunc(w.debounce, func() {
				select {
				case due <- path:
				case <-done:
				}
			})

		case path := <-due:
			delete(timers, path)
			kind, ok := kinds[path]
			if !ok {
				continue
			}
			delete(kinds, path)
			event := w.apply(ctx, path, kind)
			if event.Op == OpRemoved && event.DocumentID == "" && event.Err == nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// handleFsEvent classifies a raw event. New directories are added to the
// watch list and produce no change of their own.
func (w *Watcher) handleFsEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) (changeKind, bool) {
	if w.isHidden(ev.Name) {
		return 0, false
	}

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		return changeRemove, true
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return 0, false
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return 0, false
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) && fsw != nil {
			if err := w.addTree(fsw, ev.Name); err != nil {
				logger.Warn("watch: %v", err)
			}
		}
		return 0, false
	}
	if !info.Mode().IsRegular() {
		return 0, false
	}
	return changeUpsert, true
}

// apply performs the ingest or delete for path.
func (w *Watcher) apply(ctx context.Context, path string, kind changeKind) Event {
	w.mu.Lock()
	previous, tracked := w.docs[path]
	w.mu.Unlock()

	if tracked {
		if err := w.sink.Delete(ctx, previous); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("watch: delete previous version of %s: %v", path, err)
		}
		w.mu.Lock()
		delete(w.docs, path)
		w.mu.Unlock()
	}

	if kind == changeRemove {
		if tracked {
			logger.Info("watch: removed %s", path)
		}
		return Event{Op: OpRemoved, Path: path, DocumentID: previous}
	}

	doc, err := w.sink.IngestFile(ctx, path)
	if err != nil {
		logger.Debug("watch: skip %s: %v", path, err)
		return Event{Op: OpIngested, Path: path, Err: err}
	}

	w.mu.Lock()
	w.docs[path] = doc.ID
	w.mu.Unlock()
	logger.Info("watch: ingested %s as %s", path, doc.ID)
	return Event{Op: OpIngested, Path: path, Document: doc}
}

// isHidden reports whether any element of path below the root starts with a dot.
func (w *Watcher) isHidden(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	return isHidden(rel)
}

func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// Tracked returns the document ID ingested for path.
func (w *Watcher) Tracked(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.docs[path]
	return id, ok
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsw != nil {
		err := w.fsw.Close()
		w.fsw = nil
		return err
	}
	return nil
}
