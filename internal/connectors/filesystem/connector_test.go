package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConnector_Walk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	writeFile(t, filepath.Join(root, "a.PDF"), "a")
	writeFile(t, filepath.Join(root, "nested", "c.docx"), "c")
	writeFile(t, filepath.Join(root, "notes.md"), "unsupported")
	writeFile(t, filepath.Join(root, ".hidden.txt"), "hidden")
	writeFile(t, filepath.Join(root, ".git", "config.txt"), "hidden dir")

	paths, err := New(root).Walk(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.PDF"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "nested", "c.docx"),
	}, paths)
}

func TestConnector_Walk_Errors(t *testing.T) {
	_, err := New("/non/existent/path").Walk(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "does not exist")

	file := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, file, "x")
	_, err = New(file).Walk(context.Background())
	assert.ErrorIs(t, err, domain.ErrValidation)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(root).Walk(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"file.txt", false},
		{"dir/file.txt", false},
		{".hidden", true},
		{"dir/.hidden.txt", true},
		{".config/data.txt", true},
		{"a/.b/c.txt", true},
		{"./file.txt", false},
		{"../file.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		create   bool
		dir      bool
		op       fsnotify.Op
		expected *ChangeType
	}{
		{"create file", "new.txt", true, false, fsnotify.Create, ptr(ChangeCreated)},
		{"write file", "doc.pdf", true, false, fsnotify.Write, ptr(ChangeUpdated)},
		{"write with chmod", "doc.pdf", true, false, fsnotify.Write | fsnotify.Chmod, ptr(ChangeUpdated)},
		{"remove file", "gone.docx", false, false, fsnotify.Remove, ptr(ChangeDeleted)},
		{"rename file", "moved.txt", false, false, fsnotify.Rename, ptr(ChangeDeleted)},
		{"chmod only", "doc.txt", true, false, fsnotify.Chmod, nil},
		{"directory", "folder.txt", true, true, fsnotify.Create, nil},
		{"hidden file", ".secret.txt", true, false, fsnotify.Create, nil},
		{"unsupported format", "notes.md", true, false, fsnotify.Create, nil},
		{"create of vanished file", "flash.txt", false, false, fsnotify.Create, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, tt.file)
			if tt.dir {
				require.NoError(t, os.Mkdir(path, 0o755))
			} else if tt.create {
				writeFile(t, path, "content")
			}

			change := New(root).handleFsEvent(fsnotify.Event{Name: path, Op: tt.op})

			if tt.expected == nil {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.Equal(t, *tt.expected, change.Type)
			assert.Equal(t, path, change.Path)
		})
	}
}

func TestConnector_Watch(t *testing.T) {
	t.Run("reports created files", func(t *testing.T) {
		root := t.TempDir()
		connector := New(root)
		defer connector.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := connector.Watch(ctx)
		require.NoError(t, err)

		path := filepath.Join(root, "invoice.txt")
		writeFile(t, path, "Invoice")

		select {
		case change := <-changes:
			assert.Equal(t, path, change.Path)
			assert.Contains(t, []ChangeType{ChangeCreated, ChangeUpdated}, change.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for file change event")
		}
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		connector := New(t.TempDir())
		defer connector.Close()
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := connector.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			if ok {
				for range changes {
				}
			}
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		changes, err := New("/non/existent/path").Watch(context.Background())

		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closed connector", func(t *testing.T) {
		connector := New(t.TempDir())
		require.NoError(t, connector.Close())

		changes, err := connector.Watch(context.Background())

		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "closed")
	})
}

func TestConnector_Watch_CoalescesBursts(t *testing.T) {
	root := t.TempDir()
	connector := New(root, WithDebounce(100*time.Millisecond))
	defer connector.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := connector.Watch(ctx)
	require.NoError(t, err)

	path := filepath.Join(root, "contract.txt")
	for i := range 5 {
		writeFile(t, path, strings.Repeat("clause ", i+1))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case change := <-changes:
		assert.Equal(t, path, change.Path)
		assert.Equal(t, ChangeCreated, change.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for file change event")
	}

	select {
	case change := <-changes:
		t.Fatalf("unexpected second change: %+v", change)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConnector_Watch_NoDebounce(t *testing.T) {
	root := t.TempDir()
	connector := New(root, WithDebounce(0))
	defer connector.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := connector.Watch(ctx)
	require.NoError(t, err)

	path := filepath.Join(root, "memo.txt")
	writeFile(t, path, "memo")

	select {
	case change := <-changes:
		assert.Equal(t, path, change.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for file change event")
	}
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name    string
		pending []Change
		next    ChangeType
		want    ChangeType
	}{
		{"first event", nil, ChangeUpdated, ChangeUpdated},
		{"write after create", []Change{{Type: ChangeCreated}}, ChangeUpdated, ChangeCreated},
		{"delete after create", []Change{{Type: ChangeCreated}}, ChangeDeleted, ChangeDeleted},
		{"recreated after delete", []Change{{Type: ChangeDeleted}}, ChangeCreated, ChangeCreated},
		{"write after write", []Change{{Type: ChangeUpdated}}, ChangeUpdated, ChangeUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pending := make(map[string]Change)
			for _, c := range tt.pending {
				c.Path = "/docs/a.txt"
				pending[c.Path] = c
			}

			got := coalesce(pending, Change{Type: tt.next, Path: "/docs/a.txt"})

			assert.Equal(t, tt.want, got.Type)
		})
	}
}

func TestNew_DefaultDebounce(t *testing.T) {
	assert.Equal(t, DefaultDebounce, New("/tmp").debounce)
	assert.Equal(t, time.Second, New("/tmp", WithDebounce(time.Second)).debounce)
}

func TestConnector_Close_Idempotent(t *testing.T) {
	connector := New("/tmp")
	assert.NoError(t, connector.Close())
	assert.NoError(t, connector.Close())
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/docs/a.txt", ResolvePath("file:///docs/a.txt"))
	assert.Equal(t, "docs/a.txt", ResolvePath("docs/a.txt"))
	assert.True(t, IsLocal("/docs/a.txt"))
	assert.True(t, IsLocal("file:///docs/a.txt"))
	assert.False(t, IsLocal("https://example.com/a.pdf"))
	assert.False(t, IsLocal("HTTP://example.com/a.pdf"))
}

func ptr(c ChangeType) *ChangeType {
	return &c
}
