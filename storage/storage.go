package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// LogStore uploads run artifacts to remote storage.
// key is a slash separated path relative to the store's root;
// the returned location is for display only.
type LogStore interface {
	Upload(ctx context.Context, key, localPath string) (location string, err error)
}

// LogKey is the deterministic remote path of a run's log:
// <prefix>/<run name>/<file name>
func LogKey(prefix, runName, fileName string) string {
	return path.Join(prefix, runName, fileName)
}

// DirLogStore is a LogStore backed by a local (or mounted) directory
type DirLogStore struct {
	Root string
}

// Upload copies localPath to Root/key
func (s *DirLogStore) Upload(ctx context.Context, key, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %v", err)
	}
	src, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy %v: %v", localPath, err)
	}
	if err = out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}
