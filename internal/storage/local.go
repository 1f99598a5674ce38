package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		dir = "uploads"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory, %w", err)
	}

	return &Local{dir: dir}, nil
}

// clean strips any path components so names can't escape the upload dir
func (l *Local) clean(name string) string {
	return filepath.Join(l.dir, filepath.Base(name))
}

func (l *Local) Save(_ context.Context, name string, r io.Reader) error {
	f, err := os.Create(l.clean(name))
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}

	return f.Close()
}

func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, int64, error) {
	f, err := os.Open(l.clean(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrNotFound
		}

		return nil, 0, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	return f, stat.Size(), nil
}

func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(l.clean(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (l *Local) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}
