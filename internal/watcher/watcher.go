// Package watcher observes the knowledge-base directory and invalidates
// tenant engines when their content changes, so a corpus edit is picked up
// on the next query without a restart.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Invalidator drops cached engines for a tenant. Implemented by the
// registry.
type Invalidator interface {
	Invalidate(tenantID string) int
}

// KBWatcher watches <root>/<tenant>/ subdirectories for knowledge-base file
// changes. Events are debounced per tenant, then forwarded to the
// invalidator.
type KBWatcher struct {
	root        string
	invalidator Invalidator
	debouncer   *Debouncer

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	stopped bool
	done    chan struct{}
}

// New creates a watcher over the knowledge-base root directory.
func New(root string, invalidator Invalidator, debounce time.Duration) *KBWatcher {
	return &KBWatcher{
		root:        root,
		invalidator: invalidator,
		debouncer:   NewDebouncer(debounce),
		done:        make(chan struct{}),
	}
}

// Start begins watching. The root and every existing tenant subdirectory are
// registered; tenant directories created later are picked up from the root's
// create events. Runs until Stop is called or the context is cancelled.
func (w *KBWatcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		_ = fsw.Close()
		return nil
	}
	w.fsw = fsw
	w.mu.Unlock()

	if err := fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		return err
	}

	entries, err := os.ReadDir(w.root)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				_ = fsw.Add(filepath.Join(w.root, entry.Name()))
			}
		}
	}

	go w.run(ctx, fsw)

	slog.Info("kb_watcher_started", slog.String("root", w.root))
	return nil
}

func (w *KBWatcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("kb_watcher_error", slog.String("error", err.Error()))
		case tenants, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			for _, tenant := range tenants {
				removed := w.invalidator.Invalidate(tenant)
				slog.Info("kb_change_invalidated",
					slog.String("tenant", tenant),
					slog.Int("engines_removed", removed))
			}
		}
	}
}

func (w *KBWatcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	tenant, ok := w.tenantFor(event.Name)
	if !ok {
		return
	}

	// A new tenant directory must itself be watched for its files.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = fsw.Add(event.Name)
			return
		}
	}

	if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.debouncer.Add(tenant)
	}
}

// tenantFor extracts the tenant directory name from an event path under the
// root. Paths outside the root, the root itself, and dotfiles are ignored.
func (w *KBWatcher) tenantFor(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	tenant := parts[0]
	if tenant == "" || strings.HasPrefix(tenant, ".") {
		return "", false
	}
	return tenant, true
}

// Stop stops the watcher. Safe to call multiple times.
func (w *KBWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	fsw := w.fsw
	w.mu.Unlock()

	w.debouncer.Stop()
	if fsw != nil {
		return fsw.Close()
	}
	return nil
}
