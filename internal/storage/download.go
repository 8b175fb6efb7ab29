package storage

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Download copies an object to a local file and returns the bytes written.
func Download(ctx context.Context, store ObjectStore, key, localPath string) (int64, error) {
	reader, err := store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("get object %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	file, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("create local file %q: %w", localPath, err)
	}
	written, err := io.Copy(file, reader)
	if err != nil {
		_ = file.Close()
		return 0, fmt.Errorf("write local file %q: %w", localPath, err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("close local file %q: %w", localPath, err)
	}
	return written, nil
}
