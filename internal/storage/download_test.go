package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type mapStore map[string][]byte

func (m mapStore) Put(context.Context, string, io.Reader, int64, PutOptions) (ObjectInfo, error) {
	return ObjectInfo{}, nil
}

func (m mapStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := m[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (m mapStore) Stat(_ context.Context, key string) (ObjectInfo, error) {
	return ObjectInfo{Key: key, Size: int64(len(m[key]))}, nil
}

func TestDownloadWritesLocalFile(t *testing.T) {
	store := mapStore{"employees/employees.csv": []byte("Age\n41\n")}
	dst := filepath.Join(t.TempDir(), "employees.csv")

	written, err := Download(context.Background(), store, "employees/employees.csv", dst)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if written != 7 {
		t.Fatalf("written = %d", written)
	}
	body, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(body) != "Age\n41\n" {
		t.Fatalf("body = %q", string(body))
	}
}

func TestDownloadMissingObject(t *testing.T) {
	_, err := Download(context.Background(), mapStore{}, "missing", filepath.Join(t.TempDir(), "x"))
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Download() error = %v, want ErrObjectNotFound", err)
	}
}
