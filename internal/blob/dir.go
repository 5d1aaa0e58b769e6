package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir is a Store rooted at a local directory.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) Get(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(d.resolve(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dir: get %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("dir: get %s: %w", path, err)
	}
	return f, nil
}

func (d *Dir) Put(_ context.Context, path string, data io.Reader, _ string) error {
	target := d.resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("dir: put %s: %w", path, err)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("dir: put %s: %w", path, err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return fmt.Errorf("dir: write %s: %w", path, err)
	}
	return f.Close()
}

func (d *Dir) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(d.root, filepath.FromSlash(path))
}
