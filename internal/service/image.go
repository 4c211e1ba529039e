package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/msomdec/postfeed/internal/domain"
	"github.com/msomdec/postfeed/internal/metrics"
)

// MaxImageSize is the largest upload accepted.
const MaxImageSize = 10 * 1024 * 1024 // 10MB

// imageTimeLayout prefixes stored file names with the upload instant in UTC
// with millisecond precision.
const imageTimeLayout = "2006-01-02T15:04:05.000Z"

const maxNameAttempts = 10

// ImageService runs the image lifecycle: accept an upload, name and store it,
// and release it once no post references it.
type ImageService struct {
	store domain.ImageStore
	now   func() time.Time
	wg    sync.WaitGroup
}

// ImageOption configures an ImageService.
type ImageOption func(*ImageService)

// WithImageClock replaces time.Now when naming stored files.
func WithImageClock(now func() time.Time) ImageOption {
	return func(s *ImageService) { s.now = now }
}

// NewImageService creates a new ImageService.
func NewImageService(store domain.ImageStore, opts ...ImageOption) *ImageService {
	s := &ImageService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accepts reports whether data sniffs as a PNG or JPEG image.
func Accepts(data []byte) bool {
	mt := mimetype.Detect(data)
	return mt.Is("image/png") || mt.Is("image/jpeg")
}

// Store saves an uploaded image and returns its storage path. A file whose
// content is neither PNG nor JPEG is ignored: Store returns an empty path and
// no error, the same as if no file had been sent.
func (s *ImageService) Store(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if len(data) > MaxImageSize {
		return "", domain.Invalid([]domain.FieldError{{Field: "image", Message: "Image exceeds 10MB limit."}})
	}
	if !Accepts(data) {
		slog.DebugContext(ctx, "ignoring upload with unsupported type",
			"filename", filename, "type", mimetype.Detect(data).String())
		return "", nil
	}

	stamp := s.now().UTC().Format(imageTimeLayout)
	base := cleanBase(filename)
	name := stamp + "-" + base
	for attempt := 1; ; attempt++ {
		path, err := s.store.Save(ctx, name, data)
		if err == nil {
			return path, nil
		}
		// Two uploads of the same file within one millisecond.
		if !errors.Is(err, fs.ErrExist) || attempt >= maxNameAttempts {
			return "", fmt.Errorf("save image: %w", err)
		}
		name = fmt.Sprintf("%s-%d-%s", stamp, attempt, base)
	}
}

// Remove releases a stored image in the background. Failures are logged and
// never reach the caller.
func (s *ImageService) Remove(path string) {
	if path == "" {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.store.Delete(context.Background(), path)
		switch {
		case err == nil:
			metrics.ImageRemoval("ok")
		case errors.Is(err, domain.ErrNotFound):
			metrics.ImageRemoval("missing")
			slog.Warn("image already gone", "path", path)
		default:
			metrics.ImageRemoval("error")
			slog.Error("remove image", "path", path, "error", err)
		}
	}()
}

// Wait blocks until every pending Remove has finished.
func (s *ImageService) Wait() {
	s.wg.Wait()
}

func cleanBase(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "upload"
	}
	return base
}
