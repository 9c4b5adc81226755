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

type recordingInvalidator struct {
	mu      sync.Mutex
	tenants []string
}

func (r *recordingInvalidator) Invalidate(tenantID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants = append(r.tenants, tenantID)
	return 1
}

func (r *recordingInvalidator) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tenants...)
}

func TestDebouncer_CoalescesSameTenant(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add("alpha")
	d.Add("alpha")
	d.Add("alpha")

	select {
	case batch := <-d.Output():
		assert.Equal(t, []string{"alpha"}, batch)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch emitted")
	}
}

func TestDebouncer_BatchesDistinctTenants(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add("alpha")
	d.Add("beta")

	select {
	case batch := <-d.Output():
		assert.ElementsMatch(t, []string{"alpha", "beta"}, batch)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch emitted")
	}
}

func TestDebouncer_StopIsIdempotent(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	d.Stop()
	d.Stop()

	// Add after stop must not panic or emit.
	d.Add("alpha")
	_, open := <-d.Output()
	assert.False(t, open)
}

func TestTenantFor(t *testing.T) {
	w := New(filepath.Join("/", "kb"), nil, 0)

	tests := []struct {
		name   string
		path   string
		tenant string
		ok     bool
	}{
		{"tenant file", "/kb/alpha/kb_en.json", "alpha", true},
		{"tenant dir", "/kb/alpha", "alpha", true},
		{"nested file", "/kb/alpha/sub/file.json", "alpha", true},
		{"root itself", "/kb", "", false},
		{"outside root", "/elsewhere/file", "", false},
		{"dotfile dir", "/kb/.git/config", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant, ok := w.tenantFor(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.tenant, tenant)
		})
	}
}

func TestKBWatcher_InvalidatesOnFileWrite(t *testing.T) {
	root := t.TempDir()
	tenantDir := filepath.Join(root, "alpha")
	require.NoError(t, os.MkdirAll(tenantDir, 0o755))

	inv := &recordingInvalidator{}
	w := New(root, inv, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(filepath.Join(tenantDir, "kb_en.json"), []byte(`{"k":"v"}`), 0o644))

	require.Eventually(t, func() bool {
		for _, tenant := range inv.seen() {
			if tenant == "alpha" {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond, "write should invalidate tenant alpha")
}

func TestKBWatcher_NewTenantDirPickedUp(t *testing.T) {
	root := t.TempDir()

	inv := &recordingInvalidator{}
	w := New(root, inv, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	tenantDir := filepath.Join(root, "beta")
	require.NoError(t, os.MkdirAll(tenantDir, 0o755))
	// Give fsnotify a beat to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(tenantDir, "kb_fr.json"), []byte(`{"k":"v"}`), 0o644))

	require.Eventually(t, func() bool {
		for _, tenant := range inv.seen() {
			if tenant == "beta" {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond, "file in new tenant dir should invalidate tenant beta")
}

func TestKBWatcher_StopIsIdempotent(t *testing.T) {
	w := New(t.TempDir(), &recordingInvalidator{}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
