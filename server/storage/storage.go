package storage

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cyclopcam/logs"
)

// Snapshots and overlay asset files live in blob storage, so a fleet of
// try-on servers can share one bucket. Local filesystem is the default for
// a single-box deployment.

var (
	ErrNoPublicUrl  = errors.New("Storage does not provide public URLs")
	ErrFileNotFound = errors.New("File not found in storage")
)

// Storage is an abstraction of a blob store (eg GCS)
type Storage interface {
	// When finished, you must close the WriteCloser
	WriteFile(name string) (io.WriteCloser, error)

	// When finished, you must close File.Reader
	ReadFile(name string) (*File, error)

	DeleteFile(name string) error

	// URL returns a public URL for the file, or ErrNoPublicUrl
	URL(name string) (string, error)
}

// File is an element in blob storage.
type File struct {
	Reader     io.ReadCloser
	ModifiedAt time.Time
	Size       int64
}

// NewStorage creates a blob store from its config kind: "fs" or "gcs"
func NewStorage(log logs.Log, kind, fsRoot, gcsBucket string, gcsPublic bool) (Storage, error) {
	switch kind {
	case "", "fs":
		return NewStorageFS(log, fsRoot)
	case "gcs":
		return NewStorageGCS(log, gcsBucket, gcsPublic)
	default:
		return nil, fmt.Errorf("Unknown storage kind '%v' (expected 'fs' or 'gcs')", kind)
	}
}

func WriteFile(s Storage, name string, content io.Reader) error {
	f, err := s.WriteFile(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, content)
	errClose := f.Close()
	if err != nil {
		return err
	}
	return errClose
}

func ReadFile(s Storage, name string) ([]byte, error) {
	f, err := s.ReadFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Reader.Close()
	return io.ReadAll(f.Reader)
}
