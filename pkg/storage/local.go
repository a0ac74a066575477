package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage persists uploaded artifacts on disk under a base directory and
// returns URLs rooted at a public prefix.
type LocalStorage struct {
	baseDir      string
	publicPrefix string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, publicPrefix string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads/submissions"
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads/submissions"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, publicPrefix: "/" + strings.Trim(publicPrefix, "/")}, nil
}

// Upload copies reader into baseDir/name and returns the public URL of the file.
func (s *LocalStorage) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cleaned := filepath.Base(filepath.Clean("/" + name))
	if cleaned == "/" || cleaned == "." {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	target := filepath.Join(s.baseDir, cleaned)
	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, reader); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("write upload stream: %w", err)
	}

	return path.Join(s.publicPrefix, cleaned), nil
}
