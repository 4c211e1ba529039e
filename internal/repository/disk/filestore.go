// Package disk stores uploaded images as plain files under a fixed root.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/msomdec/postfeed/internal/domain"
)

// ImageDir is the directory, relative to the root, that holds uploads. Stored
// paths start with it, e.g. "images/2024-01-02T03:04:05.000Z-cat.png".
const ImageDir = "images"

// FileStore implements domain.ImageStore on the local filesystem.
type FileStore struct {
	root string
}

var _ domain.ImageStore = (*FileStore)(nil)

// NewFileStore creates root/images if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(root, ImageDir), 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Dir returns the absolute-or-relative directory served as /images/.
func (s *FileStore) Dir() string {
	return filepath.Join(s.root, ImageDir)
}

// Save writes data under images/ using only the base of name, so callers
// cannot escape the image directory. It fails if the file already exists.
func (s *FileStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	rel := ImageDir + "/" + base
	f, err := os.OpenFile(filepath.Join(s.root, ImageDir, base), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close image file: %w", err)
	}
	return rel, nil
}

// Delete removes the file at path, joined against the root. Paths outside
// the image directory are rejected. A missing file reports domain.ErrNotFound.
func (s *FileStore) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}

func (s *FileStore) resolve(path string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(path, "/")))
	dir := filepath.Clean(ImageDir)
	if !strings.HasPrefix(rel, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: image path %q is outside %s", domain.ErrForbidden, path, ImageDir)
	}
	return filepath.Join(s.root, rel), nil
}
