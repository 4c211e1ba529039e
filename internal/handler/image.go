package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/msomdec/postfeed/internal/service"
)

// maxFormMemory bounds the in-memory part of a multipart form.
const maxFormMemory = 1 << 20

var errImageTooLarge = errors.New("image too large")

// ImageHandler handles standalone image uploads.
type ImageHandler struct {
	images *service.ImageService
	posts  *service.PostService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images *service.ImageService, posts *service.PostService) *ImageHandler {
	return &ImageHandler{images: images, posts: posts}
}

// HandleUpload stores an uploaded image and optionally releases the image it
// replaces.
// PUT /post-image
// Multipart: image (file), oldpath or oldPath (text, optional)
// Response: 201 {"message":"File stored.","filePath":"images/..."}
func (h *ImageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if _, err := service.RequireIdentity(r.Context()); err != nil {
		writeDomainError(w, r, "upload image", err)
		return
	}

	path, err := storeUpload(w, r, h.images)
	if err != nil {
		writeUploadError(w, r, err)
		return
	}
	if path == "" {
		writeJSON(w, http.StatusOK, map[string]any{"message": "No file provided!"})
		return
	}

	old := r.FormValue("oldpath")
	if old == "" {
		old = r.FormValue("oldPath")
	}
	if old != "" && old != path {
		if err := h.posts.DiscardImage(r.Context(), old); err != nil {
			h.images.Remove(path)
			writeDomainError(w, r, "discard old image", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "File stored.",
		"filePath": path,
	})
}

// storeUpload parses a multipart form and stores its "image" file. It
// returns an empty path when no acceptable file was sent.
func storeUpload(w http.ResponseWriter, r *http.Request, images *service.ImageService) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageSize+maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", errImageTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", fmt.Errorf("parse multipart form: %w", err)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("read form file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	return images.Store(r.Context(), header.Filename, data)
}

func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errImageTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Image exceeds 10MB limit.")
		return
	}
	writeDomainError(w, r, "store upload", err)
}
