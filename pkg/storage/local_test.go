package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageUploadWritesFileAndReturnsPublicURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "uploads/submissions/")
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "../../escape/clip-1.mp4", strings.NewReader("payload"))
	require.NoError(t, err)
	require.Equal(t, "/uploads/submissions/clip-1.mp4", url)

	content, err := os.ReadFile(filepath.Join(dir, "clip-1.mp4"))
	require.NoError(t, err)
	require.Equal(t, "payload", string(content))
}

func TestLocalStorageRefusesToOverwrite(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "a.png", strings.NewReader("one"))
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "a.png", strings.NewReader("two"))
	require.Error(t, err)
}
