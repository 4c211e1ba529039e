package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/msomdec/postfeed/internal/service"
)

// FeedHandler handles post listing and post mutations.
type FeedHandler struct {
	posts  *service.PostService
	images *service.ImageService
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(posts *service.PostService, images *service.ImageService) *FeedHandler {
	return &FeedHandler{posts: posts, images: images}
}

// HandleListPosts returns one page of the feed.
// GET /feed/posts?page=N
// Response: {"message":"...","posts":[...],"totalItems":N}
func (h *FeedHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	result, err := h.posts.List(r.Context(), page)
	if err != nil {
		writeDomainError(w, r, "list posts", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Fetched posts successfully.",
		"posts":      toPostDTOs(result.Posts),
		"totalItems": result.TotalCount,
	})
}

// HandleCreatePost creates a post from a multipart form.
// POST /feed/post
// Multipart: title, content, image (file)
// Response: 201 {"message":"...","post":{...},"creator":{...}}
func (h *FeedHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	if _, err := service.RequireIdentity(r.Context()); err != nil {
		writeDomainError(w, r, "create post", err)
		return
	}

	imagePath, err := storeUpload(w, r, h.images)
	if err != nil {
		writeUploadError(w, r, err)
		return
	}

	post, err := h.posts.Create(r.Context(), service.PostInput{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		ImageURL: imagePath,
	})
	if err != nil {
		h.images.Remove(imagePath)
		writeDomainError(w, r, "create post", err)
		return
	}

	dto := ToPostDTO(*post)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Post created successfully!",
		"post":    dto,
		"creator": dto.Creator,
	})
}

// HandleGetPost returns a single post.
// GET /feed/post/{postId}
func (h *FeedHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		writeDomainError(w, r, "get post", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Post fetched.",
		"post":    ToPostDTO(*post),
	})
}

// HandleUpdatePost replaces a post's title, content and image. The image is
// either a new file upload or the "image" text field naming the current path.
// PUT /feed/post/{postId}
func (h *FeedHandler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	if _, err := service.RequireIdentity(r.Context()); err != nil {
		writeDomainError(w, r, "update post", err)
		return
	}

	uploaded, err := storeUpload(w, r, h.images)
	if err != nil {
		writeUploadError(w, r, err)
		return
	}
	imagePath := uploaded
	if imagePath == "" {
		imagePath = r.FormValue("image")
	}

	post, err := h.posts.Update(r.Context(), mux.Vars(r)["postId"], service.PostInput{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		ImageURL: imagePath,
	})
	if err != nil {
		h.images.Remove(uploaded)
		writeDomainError(w, r, "update post", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Post updated!",
		"post":    ToPostDTO(*post),
	})
}

// HandleDeletePost deletes a post the caller owns.
// DELETE /feed/post/{postId}
func (h *FeedHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Delete(r.Context(), mux.Vars(r)["postId"]); err != nil {
		writeDomainError(w, r, "delete post", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Deleted post."})
}
