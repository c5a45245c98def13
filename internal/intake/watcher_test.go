package intake

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportPath(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"/inbox/i485.pdf", "/inbox/i485.fields.json"},
		{"/inbox/form.txt", "/inbox/form.fields.json"},
		{"/inbox/render.v2.html", "/inbox/render.v2.fields.json"},
	}

	for _, tt := range tests {
		if got := exportPath(tt.source); got != tt.want {
			t.Errorf("Expected exportPath(%q) = %q, got %q", tt.source, tt.want, got)
		}
	}
}

func TestWatcherExtractsNewFiles(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	logger := log.New(io.Discard, "", 0)
	watcher, err := NewWatcher(svc, dir, logger)
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	source := filepath.Join(dir, "i485.txt")
	require.NoError(t, os.WriteFile(source, []byte(sampleFormText), 0644))

	exportFile := filepath.Join(dir, "i485.fields.json")
	waitForFile(t, exportFile, 5*time.Second)

	data, err := os.ReadFile(exportFile)
	require.NoError(t, err)

	var decoded struct {
		FormType string `json:"form_type"`
		Fields   []struct {
			ItemNumber string `json:"item_number"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "I-485", decoded.FormType)
	assert.NotEmpty(t, decoded.Fields)
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	logger := log.New(io.Discard, "", 0)
	watcher, err := NewWatcher(svc, dir, logger)
	require.NoError(t, err)
	defer watcher.Stop()

	ctx := context.Background()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.png"), []byte("x"), 0644))

	// Give the watcher a moment, then confirm no export appeared.
	time.Sleep(500 * time.Millisecond)
	_, err = os.Stat(filepath.Join(dir, "scan.fields.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestWatcherStopClosesLoop(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	watcher, err := NewWatcher(svc, dir, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	require.NoError(t, watcher.Start(context.Background()))

	watcher.Stop()
	// Stop is idempotent.
	watcher.Stop()

	select {
	case <-watcher.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher loop did not exit after Stop")
	}
}

func TestNewWatcherRequiresDirectory(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	_, err := NewWatcher(svc, "", nil)
	require.Error(t, err)
}

func waitForFile(t *testing.T, path string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("file %s did not appear within %v", path, timeout)
}
