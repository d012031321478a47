package storage

import (
	"errors"
	"io"
)

var ErrEmptyKey = errors.New("empty key")

// BlobStore keeps uploaded roster files.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}
