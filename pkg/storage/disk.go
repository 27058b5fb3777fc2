// Package storage provides read access to the files served by envhttp.
//
// Two drivers are available out of the box:
//   - "local": local filesystem (default)
//   - "s3": S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Quick start:
//
//	// boot once (e.g. in internal/server):
//	storage.Connect()
//
//	disk, _ := storage.Use("s3")
//	rc, info, err := disk.Open(ctx, "images/photo.jpg")
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned (wrapped) when a path does not exist on a disk.
var ErrNotFound = errors.New("storage: not found")

// Info describes a stored file.
type Info struct {
	Size         int64
	LastModified time.Time
	// ContentType is the type recorded by the backend, if any.
	ContentType string
}

// Disk is the filesystem driver interface. Every driver must implement this.
type Disk interface {
	// Open returns the file content and its metadata. Caller must close it.
	Open(ctx context.Context, path string) (io.ReadCloser, Info, error)

	// Stat returns metadata without reading content.
	Stat(ctx context.Context, path string) (Info, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool
}

// Clean turns a request path into a disk-relative key. ".." segments
// cannot climb above the disk root.
func Clean(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
