package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestNew_WritesJSONToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	logger, closeFn, err := New(Options{Dir: dir})
	require.NoError(t, err)

	logger.Info("board refreshed", "tasks", 3)
	logger.V(DEBUG).Info("hidden at info level")
	logger.Error(errors.New("boom"), "fetch failed", "resource", "cleansing")
	require.NoError(t, closeFn())

	entries := readEntries(t, filepath.Join(dir, FileName))
	require.Len(t, entries, 2)
	assert.Equal(t, "board refreshed", entries[0]["msg"])
	assert.EqualValues(t, 3, entries[0]["tasks"])
	assert.Equal(t, "error", entries[1]["level"])
	assert.Equal(t, "boom", entries[1]["error"])
	assert.Equal(t, "cleansing", entries[1]["resource"])
}

func TestNew_DebugEnablesVerbose(t *testing.T) {
	dir := t.TempDir()
	logger, closeFn, err := New(Options{Dir: dir, Debug: true})
	require.NoError(t, err)

	logger.V(DEBUG).Info("query fetch")
	logger.V(TRACE).Info("request detail")
	require.NoError(t, closeFn())

	entries := readEntries(t, filepath.Join(dir, FileName))
	require.Len(t, entries, 2)
	assert.Equal(t, "query fetch", entries[0]["msg"])
}

func TestNew_EmptyDirDiscards(t *testing.T) {
	logger, closeFn, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, logger.Enabled())
	assert.NoError(t, closeFn())
}

func TestNew_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, _, err := New(Options{Dir: filepath.Join(file, "logs")})
	assert.ErrorContains(t, err, "create log dir")
}

func TestNewTestLogger(t *testing.T) {
	logger := NewTestLogger(t)
	assert.True(t, logger.V(TRACE).Enabled())
	logger.V(TRACE).Info("trace line", "key", "value")
}
