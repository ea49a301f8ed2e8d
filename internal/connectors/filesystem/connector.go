// Package filesystem discovers and watches local documents for ingestion.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/logger"
)

// ChangeType describes what happened to a watched file.
type ChangeType string

// Change types reported by Watch.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is a filesystem event for a supported document.
type Change struct {
	Type ChangeType
	Path string
}

// DefaultDebounce is how long a path must stay quiet before Watch reports it.
const DefaultDebounce = 300 * time.Millisecond

// Connector lists and watches supported documents under a root directory.
// Hidden files and directories are skipped.
type Connector struct {
	rootPath string
	debounce time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithDebounce sets the quiet period before a change is reported. Events for
// the same path within the period are coalesced into one change. Zero reports
// every event.
func WithDebounce(d time.Duration) Option {
	return func(c *Connector) {
		c.debounce = d
	}
}

// New creates a connector rooted at rootPath.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{rootPath: rootPath, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RootPath returns the directory the connector reads.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Walk returns the paths of supported documents under the root, sorted.
func (c *Connector) Walk(ctx context.Context) ([]string, error) {
	if err := c.checkRoot(); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != c.rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isSupported(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	logger.Debug("Found %d supported documents under %s", len(paths), c.rootPath)
	return paths, nil
}

// Watch reports changes to supported documents until ctx is cancelled.
// Subdirectories present when Watch starts are watched too. A burst of events
// for one path is reported once, after the debounce period.
func (c *Connector) Watch(ctx context.Context) (<-chan Change, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("connector is closed")
	}
	if err := c.checkRoot(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addDirs(watcher, c.rootPath); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	c.watcher = watcher

	changes := make(chan Change)
	go c.watchLoop(ctx, watcher, changes)

	return changes, nil
}

// watchLoop forwards filesystem events to changes until ctx is cancelled or
// the watcher closes. Events are coalesced per path.
func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- Change) {
	pending := make(map[string]Change)
	timers := make(map[string]*time.Timer)
	ready := make(chan string)
	done := make(chan struct{})

	defer close(changes)
	defer watcher.Close()
	defer func() {
		close(done)
		for _, t := range timers {
			t.Stop()
		}
	}()

	emit := func(change Change) bool {
		select {
		case changes <- change:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) && isNewDir(event.Name) {
				if err := addDirs(watcher, event.Name); err != nil {
					logger.Warn("Cannot watch %s: %v", event.Name, err)
				}
				continue
			}
			change := c.handleFsEvent(event)
			if change == nil {
				continue
			}
			if c.debounce <= 0 {
				if !emit(*change) {
					return
				}
				continue
			}

			pending[change.Path] = coalesce(pending, *change)
			if t, ok := timers[change.Path]; ok {
				t.Reset(c.debounce)
				continue
			}
			path := change.Path
			timers[path] = time.AfterFunc(c.debounce, func() {
				select {
				case ready <- path:
				case <-done:
				}
			})
		case path := <-ready:
			change, ok := pending[path]
			delete(pending, path)
			delete(timers, path)
			if !ok {
				continue
			}
			logger.Debug("%s %s", change.Type, change.Path)
			if !emit(change) {
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// coalesce merges next into the change already pending for its path. A file
// created and then written is still reported as created.
func coalesce(pending map[string]Change, next Change) Change {
	prev, ok := pending[next.Path]
	if ok && prev.Type == ChangeCreated && next.Type == ChangeUpdated {
		return prev
	}
	return next
}

// Close stops any active watch. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// handleFsEvent converts an fsnotify event into a Change, or nil when the
// event is irrelevant (directories, hidden paths, unsupported formats, chmod).
func (c *Connector) handleFsEvent(event fsnotify.Event) *Change {
	rel, err := filepath.Rel(c.rootPath, event.Name)
	if err != nil {
		rel = event.Name
	}
	if isHidden(rel) || !isSupported(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, Path: event.Name}
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return nil
		}
		return &Change{Type: ChangeCreated, Path: event.Name}
	case event.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return nil
		}
		return &Change{Type: ChangeUpdated, Path: event.Name}
	default:
		return nil
	}
}

func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("root path error: %s does not exist: %w", c.rootPath, domain.ErrNotFound)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root path error: %s is not a directory", domain.ErrValidation, c.rootPath)
	}
	return nil
}

// addDirs watches root and every non-hidden directory below it.
func addDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func isNewDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isHidden reports whether any element of path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

func isSupported(path string) bool {
	_, err := domain.FormatFromURI(path)
	return err == nil
}
