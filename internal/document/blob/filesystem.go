package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"campusbourses/pkg/platform/sentinel"
)

// Filesystem stores blobs as files under a single directory. Handles are
// generated names (uuid + original extension), never caller-controlled, so a
// handle cannot escape the directory.
type Filesystem struct {
	dir string
}

func NewFilesystem(dir string) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &Filesystem{dir: dir}, nil
}

func (f *Filesystem) Save(_ context.Context, filename string, data []byte) (string, error) {
	handle := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(f.dir, handle)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return handle, nil
}

func (f *Filesystem) Delete(_ context.Context, handle string) error {
	path := filepath.Join(f.dir, filepath.Base(handle))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (f *Filesystem) Size(_ context.Context, handle string) (int64, error) {
	info, err := os.Stat(filepath.Join(f.dir, filepath.Base(handle)))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("stat blob: %w", err)
	}
	return info.Size(), nil
}
