// Package store provides the durable key/value storage used to keep the
// in-progress color layer of every artwork between sessions.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	osfs "github.com/hack-pad/hackpadfs/os"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("store: key not found")

// Store is a minimal durable key/value store.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, data []byte) error
}

const (
	fileExt  = ".png"
	dirPerm  = 0o755
	filePerm = 0o644
)

// FS stores every key as a single file inside a hackpadfs filesystem.
type FS struct {
	fsys hackpadfs.FS
	dir  string
}

var _ Store = (*FS)(nil)

// NewFS creates a store keeping its files under dir of the given filesystem.
func NewFS(fsys hackpadfs.FS, dir string) (*FS, error) {
	if dir == "" {
		dir = "."
	}
	if !fs.ValidPath(dir) {
		return nil, fmt.Errorf("store: invalid directory %q", dir)
	}
	if dir != "." {
		if err := hackpadfs.MkdirAll(fsys, dir, dirPerm); err != nil {
			return nil, fmt.Errorf("store: unable to create %q: %w", dir, err)
		}
	}
	return &FS{fsys: fsys, dir: dir}, nil
}

// NewDir creates a store backed by a directory of the host filesystem.
func NewDir(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	host := osfs.NewFS()
	p, err := host.FromOSPath(abs)
	if err != nil {
		return nil, fmt.Errorf("store: unable to resolve %q: %w", dir, err)
	}
	return NewFS(host, p)
}

// NewMemory creates a volatile store, mostly useful in tests.
func NewMemory() (*FS, error) {
	fsys, err := mem.NewFS()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return NewFS(fsys, ".")
}

// FileName returns the file name used to hold the value of key.
func FileName(key string) string {
	return url.QueryEscape(key) + fileExt
}

func (s *FS) path(key string) string {
	return path.Join(s.dir, FileName(key))
}

// Get returns the value stored under key, or ErrNotFound.
func (s *FS) Get(key string) ([]byte, error) {
	data, err := hackpadfs.ReadFile(s.fsys, s.path(key))
	if errors.Is(err, hackpadfs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: unable to read %q: %w", key, err)
	}
	return data, nil
}

// Set stores data under key. The value is written to a temporary file first
// and renamed into place, so a reader never sees a partial value.
func (s *FS) Set(key string, data []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("store: empty key")
	}
	target := s.path(key)
	tmp := target + ".tmp"

	if err := hackpadfs.WriteFullFile(s.fsys, tmp, data, filePerm); err != nil {
		return fmt.Errorf("store: unable to write %q: %w", key, err)
	}
	err := hackpadfs.Rename(s.fsys, tmp, target)
	if errors.Is(err, hackpadfs.ErrNotImplemented) {
		_ = hackpadfs.Remove(s.fsys, tmp)
		err = hackpadfs.WriteFullFile(s.fsys, target, data, filePerm)
	}
	if err != nil {
		return fmt.Errorf("store: unable to commit %q: %w", key, err)
	}
	return nil
}
