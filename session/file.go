package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend persists the session record as a JSON file under a base
// directory, one file per storage key. It is the local-storage analog for
// CLI and desktop hosts.
type FileBackend struct {
	basePath string
}

// NewFileBackend describes the newfilebackend operation and its observable behavior.
//
// NewFileBackend may return an error when input validation, dependency calls, or security checks fail.
// NewFileBackend does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewFileBackend(basePath string) (*FileBackend, error) {
	if basePath == "" {
		return nil, errors.New("file backend base path required")
	}
	return &FileBackend{basePath: basePath}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.basePath, key+".json")
}

// Load describes the load operation and its observable behavior.
//
// Load may return an error when input validation, dependency calls, or security checks fail.
// Load does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *FileBackend) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("read session record: %w", err)
	}
	return data, nil
}

// Save writes the record atomically: temp file in the same directory, fsync,
// then rename over the destination.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *FileBackend) Save(_ context.Context, key string, data []byte) error {
	if err := os.MkdirAll(b.basePath, 0o700); err != nil {
		return fmt.Errorf("ensure session directory: %w", err)
	}

	tmp, err := os.CreateTemp(b.basePath, "tmp-"+key+"-*.json")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record: %w", err)
	}

	if err := os.Rename(tmpPath, b.path(key)); err != nil {
		return fmt.Errorf("rename session record: %w", err)
	}
	return nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *FileBackend) Delete(_ context.Context, key string) error {
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}
