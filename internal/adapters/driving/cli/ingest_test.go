package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/doctag/internal/connectors/filesystem"
	"github.com/custodia-labs/doctag/internal/core/domain"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("content of "+name), 0o600))
	}
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [path|dir|url]...", ingestCmd.Use)
}

func TestIngestCmd_RequiresArgs(t *testing.T) {
	_, err := execute(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_Flags(t *testing.T) {
	assert.NotNil(t, ingestCmd.Flags().Lookup("details"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("semantics"))
	flag := ingestCmd.Flags().Lookup("watch")
	require.NotNil(t, flag)
	assert.Equal(t, "w", flag.Shorthand)
}

func TestIngestCmd_FilesAndURLs(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "ingest", "--details", "notes.txt", "https://example.com/a.pdf")

	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt", "a.pdf"}, ts.ingest.ingestedNames())
	assert.True(t, ts.ingest.opts.Details)
	assert.False(t, ts.ingest.opts.Semantics)
	assert.Contains(t, out, "doc-1  Invoice  notes.txt")
	assert.Contains(t, out, "Ingested 2 document(s)")
}

func TestIngestCmd_Semantics(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ingest", "--semantics", "notes.txt")

	require.NoError(t, err)
	assert.True(t, ts.ingest.opts.Semantics)
	assert.False(t, ts.ingest.opts.Details)
}

func TestIngestCmd_Directory(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "sub/b.pdf", "c.xlsx", ".hidden/d.txt", ".e.txt")

	out, err := execute(t, "ingest", dir)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.pdf"}, ts.ingest.ingestedNames())
	assert.Contains(t, out, "Ingested 2 document(s)")
}

func TestIngestCmd_ContinuesPastFailures(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.fail["bad.pdf"] = fmt.Errorf("%w: pdftotext failed", domain.ErrExtraction)

	out, err := execute(t, "ingest", "bad.pdf", "good.txt")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Equal(t, []string{"good.txt"}, ts.ingest.ingestedNames())
	assert.Contains(t, out, "failed bad.pdf")
	assert.Contains(t, out, "Ingested 1 document(s)")
}

func TestIngestCmd_WatchRequiresDirectory(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ingest", "--watch", "a.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch requires exactly one directory")
}

func TestIngestCmd_NotConfigured(t *testing.T) {
	_, err := execute(t, "ingest", "a.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}

func TestIngestCmd_Watch(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeFiles(t, dir, "existing.txt")

	ctx, cancel := context.WithCancel(context.Background())
	rootCmd.SetContext(ctx)
	ingestCmd.SetContext(ctx)
	defer func() {
		rootCmd.SetContext(context.Background())
		ingestCmd.SetContext(context.Background())
	}()

	done := make(chan error, 1)
	go func() {
		_, err := execute(t, "ingest", "--watch", dir)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return len(ts.ingest.ingestedNames()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, "new.txt")
	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("line\n", i+1)), 0o600))
		time.Sleep(10 * time.Millisecond)
	}
	countNew := func() int {
		n := 0
		for _, name := range ts.ingest.ingestedNames() {
			if name == "new.txt" {
				n++
			}
		}
		return n
	}
	require.Eventually(t, func() bool { return countNew() == 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(2 * filesystem.DefaultDebounce)
	assert.Equal(t, 1, countNew(), "a burst of writes is ingested once")

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		ts.ingest.mu.Lock()
		defer ts.ingest.mu.Unlock()
		return len(ts.ingest.forgotten) > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt")

	assert.True(t, isDir(dir))
	assert.True(t, isDir("file://"+dir))
	assert.False(t, isDir(filepath.Join(dir, "a.txt")))
	assert.False(t, isDir(filepath.Join(dir, "missing")))
	assert.False(t, isDir("https://example.com/"))
}
