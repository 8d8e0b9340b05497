package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Retrieve when the named object does not exist
var ErrNotFound = errors.New("object not found")

// StorageInterface defines the contract for snapshot storage backends
type StorageInterface interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// IsNotFound reports whether err came from a missing object
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
