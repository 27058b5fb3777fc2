package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// localDisk is the local-filesystem driver.
type localDisk struct {
	root string // absolute root directory
}

// NewLocal returns a disk rooted at root; a relative root is resolved
// against the working directory.
func NewLocal(root string) Disk {
	if !filepath.IsAbs(root) {
		cwd, _ := os.Getwd()
		root = filepath.Join(cwd, root)
	}
	return &localDisk{root: root}
}

func (d *localDisk) abs(path string) string {
	return filepath.Join(d.root, filepath.FromSlash(Clean(path)))
}

func (d *localDisk) Open(_ context.Context, path string) (io.ReadCloser, Info, error) {
	f, err := os.Open(d.abs(path))
	if err != nil {
		return nil, Info{}, d.wrap("open", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Info{}, d.wrap("stat", path, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, Info{}, fmt.Errorf("storage/local: open %s: is a directory: %w", path, ErrNotFound)
	}
	return f, Info{Size: st.Size(), LastModified: st.ModTime()}, nil
}

func (d *localDisk) Stat(_ context.Context, path string) (Info, error) {
	st, err := os.Stat(d.abs(path))
	if err != nil {
		return Info{}, d.wrap("stat", path, err)
	}
	if st.IsDir() {
		return Info{}, fmt.Errorf("storage/local: stat %s: is a directory: %w", path, ErrNotFound)
	}
	return Info{Size: st.Size(), LastModified: st.ModTime()}, nil
}

func (d *localDisk) Exists(ctx context.Context, path string) bool {
	_, err := d.Stat(ctx, path)
	return err == nil
}

func (d *localDisk) wrap(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: %s %s: %w", op, path, ErrNotFound)
	}
	return fmt.Errorf("storage/local: %s %s: %w", op, path, err)
}
