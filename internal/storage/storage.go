// Package storage abstracts where uploaded files live. The default backend
// is a plain local directory, with S3 available for deployments that want it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"
)

var ErrNotFound = errors.New("file not found")

type Storage interface {
	// Save writes the contents of r under name, overwriting any existing file
	Save(ctx context.Context, name string, r io.Reader) error

	// Open returns the file contents and size, or ErrNotFound
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)

	Exists(ctx context.Context, name string) (bool, error)

	// List returns all stored file names sorted ascending
	List(ctx context.Context) ([]string, error)
}

// New picks the backend from the storage.type config key
func New() (Storage, error) {
	switch t := viper.GetString("storage.type"); t {
	case "local":
		return NewLocal(viper.GetString("storage.local_dir"))
	case "s3":
		return NewS3()
	default:
		return nil, fmt.Errorf("invalid storage type %q", t)
	}
}
