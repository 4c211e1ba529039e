package domain

import "context"

// ImageStore abstracts raw image byte storage. Paths are relative to the
// store root, e.g. "images/2024-01-02T03:04:05.000Z-cat.png".
type ImageStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, path string) error
}
