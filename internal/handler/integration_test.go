package handler_test

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIntegration_SignupLoginCreateLoad(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signupAndLogin(t, "a@x.com", "Ann")

	// 1. Create a post with an image.
	status, body := env.doMultipart(t, http.MethodPost, "/feed/post", token,
		map[string]string{"title": "Hello World", "content": "Body text"}, pngBytes)
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%v)", status, body)
	}
	post := body["post"].(map[string]any)
	postID := post["_id"].(string)
	imageURL := post["imageUrl"].(string)
	if !strings.HasPrefix(imageURL, "images/") || !strings.HasSuffix(imageURL, "-photo.png") {
		t.Fatalf("unexpected imageUrl %q", imageURL)
	}
	creator := body["creator"].(map[string]any)
	if creator["_id"] != userID || creator["name"] != "Ann" {
		t.Fatalf("unexpected creator %v", creator)
	}

	// 2. The stored image is served statically.
	resp, err := http.Get(env.srv.URL + "/" + imageURL)
	if err != nil {
		t.Fatalf("GET image: %v", err)
	}
	served, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(served) != len(pngBytes) {
		t.Fatalf("expected image served, got %d (%d bytes)", resp.StatusCode, len(served))
	}

	// 3. The feed lists it with the creator resolved.
	status, body = env.do(t, http.MethodGet, "/feed/posts?page=1", token, nil, "")
	if status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	if body["totalItems"].(float64) != 1 {
		t.Fatalf("expected totalItems 1, got %v", body["totalItems"])
	}
	listed := body["posts"].([]any)[0].(map[string]any)
	if listed["_id"] != postID || listed["creator"].(map[string]any)["name"] != "Ann" {
		t.Fatalf("unexpected listed post %v", listed)
	}

	// 4. Fetch it by id.
	status, body = env.do(t, http.MethodGet, "/feed/post/"+postID, token, nil, "")
	if status != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", status)
	}
	if body["post"].(map[string]any)["title"] != "Hello World" {
		t.Fatalf("unexpected post %v", body["post"])
	}
}

func TestIntegration_SignupErrors(t *testing.T) {
	env := newTestEnv(t)
	env.signupAndLogin(t, "dup@example.com", "Dup")

	status, body := env.doJSON(t, http.MethodPut, "/auth/signup", "", map[string]string{
		"email": "dup@example.com", "name": "Again", "password": "secret1",
	})
	if status != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", status)
	}
	if body["message"] != "User exists already!" || body["status"].(float64) != 409 {
		t.Fatalf("unexpected body %v", body)
	}

	status, body = env.doJSON(t, http.MethodPut, "/auth/signup", "", map[string]string{
		"email": "not-an-email", "name": "", "password": "123",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("invalid: expected 422, got %d", status)
	}
	data := body["data"].([]any)
	if len(data) != 3 {
		t.Fatalf("expected 3 field errors, got %v", data)
	}
}

func TestIntegration_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.signupAndLogin(t, "real@example.com", "Real")

	for _, creds := range []map[string]string{
		{"email": "real@example.com", "password": "wrong-password"},
		{"email": "ghost@example.com", "password": "secret1"},
	} {
		status, body := env.doJSON(t, http.MethodPost, "/auth/login", "", creds)
		if status != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", creds["email"], status)
		}
		if body["message"] != "Invalid email or password." {
			t.Fatalf("unexpected body %v", body)
		}
	}
}

func TestIntegration_ProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/feed/posts"},
		{http.MethodGet, "/feed/post/abc"},
		{http.MethodDelete, "/feed/post/abc"},
		{http.MethodGet, "/auth/status"},
	}
	for _, rt := range routes {
		status, body := env.do(t, rt.method, rt.path, "", nil, "")
		if status != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", rt.method, rt.path, status)
		}
		if body["message"] != "Not authenticated." {
			t.Fatalf("%s %s: unexpected body %v", rt.method, rt.path, body)
		}
	}

	status, _ := env.doMultipart(t, http.MethodPost, "/feed/post", "expired.or.bad",
		map[string]string{"title": "Hello", "content": "World"}, pngBytes)
	if status != http.StatusUnauthorized {
		t.Fatalf("create with bad token: expected 401, got %d", status)
	}
	entries, _ := os.ReadDir(filepath.Join(env.root, "images"))
	if len(entries) != 0 {
		t.Fatal("upload from an unauthenticated request must not be stored")
	}
}

func TestIntegration_CreateWithoutImageFailsValidation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupAndLogin(t, "noimg@example.com", "NoImg")

	status, body := env.doMultipart(t, http.MethodPost, "/feed/post", token,
		map[string]string{"title": "Hello World", "content": "Body text"}, []byte("plain text, not an image"))
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	data := body["data"].([]any)
	if len(data) != 1 || data[0].(map[string]any)["message"] != "No image provided." {
		t.Fatalf("unexpected data %v", data)
	}
}

func TestIntegration_InvalidPostRemovesStoredUpload(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupAndLogin(t, "short@example.com", "Short")

	status, _ := env.doMultipart(t, http.MethodPost, "/feed/post", token,
		map[string]string{"title": "Hi", "content": "Body text"}, pngBytes)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	env.images.Wait()

	entries, _ := os.ReadDir(filepath.Join(env.root, "images"))
	if len(entries) != 0 {
		t.Fatalf("expected upload removed, found %d files", len(entries))
	}
}

func TestIntegration_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.signupAndLogin(t, "owner@example.com", "Owner")
	other, _ := env.signupAndLogin(t, "other@example.com", "Other")

	status, body := env.doMultipart(t, http.MethodPost, "/feed/post", owner,
		map[string]string{"title": "Original", "content": "Original body"}, pngBytes)
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", status)
	}
	post := body["post"].(map[string]any)
	postID := post["_id"].(string)
	imageURL := post["imageUrl"].(string)

	// A non-creator may not update or delete.
	status, body = env.doMultipart(t, http.MethodPut, "/feed/post/"+postID, other,
		map[string]string{"title": "Hijacked", "content": "Hijacked", "image": imageURL}, nil)
	if status != http.StatusForbidden || body["message"] != "Not authorized!" {
		t.Fatalf("update by other: expected 403, got %d (%v)", status, body)
	}
	status, _ = env.do(t, http.MethodDelete, "/feed/post/"+postID, other, nil, "")
	if status != http.StatusForbidden {
		t.Fatalf("delete by other: expected 403, got %d", status)
	}

	// The creator keeps the image by sending its path back.
	status, body = env.doMultipart(t, http.MethodPut, "/feed/post/"+postID, owner,
		map[string]string{"title": "Changed", "content": "Changed body", "image": imageURL}, nil)
	if status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%v)", status, body)
	}
	updated := body["post"].(map[string]any)
	if updated["title"] != "Changed" || updated["imageUrl"] != imageURL {
		t.Fatalf("unexpected update %v", updated)
	}

	// Delete, then the post and its image are gone.
	status, body = env.do(t, http.MethodDelete, "/feed/post/"+postID, owner, nil, "")
	if status != http.StatusOK || body["message"] != "Deleted post." {
		t.Fatalf("delete: expected 200, got %d (%v)", status, body)
	}
	env.images.Wait()

	status, _ = env.do(t, http.MethodGet, "/feed/post/"+postID, owner, nil, "")
	if status != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", status)
	}
	if _, err := os.Stat(filepath.Join(env.root, filepath.FromSlash(imageURL))); !os.IsNotExist(err) {
		t.Fatalf("expected image removed, stat err = %v", err)
	}
}

func TestIntegration_PostImage(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupAndLogin(t, "img@example.com", "Img")

	status, body := env.doMultipart(t, http.MethodPut, "/post-image", token, nil, nil)
	if status != http.StatusOK || body["message"] != "No file provided!" {
		t.Fatalf("no file: expected 200, got %d (%v)", status, body)
	}

	status, body = env.doMultipart(t, http.MethodPut, "/post-image", token, nil, pngBytes)
	if status != http.StatusCreated || body["message"] != "File stored." {
		t.Fatalf("store: expected 201, got %d (%v)", status, body)
	}
	first := body["filePath"].(string)

	status, body = env.doMultipart(t, http.MethodPut, "/post-image", token, map[string]string{"oldPath": first}, pngBytes)
	if status != http.StatusCreated {
		t.Fatalf("replace: expected 201, got %d (%v)", status, body)
	}
	second := body["filePath"].(string)

	status, body = env.doMultipart(t, http.MethodPut, "/post-image", token, map[string]string{"oldpath": second}, pngBytes)
	if status != http.StatusCreated {
		t.Fatalf("replace lowercase: expected 201, got %d (%v)", status, body)
	}
	third := body["filePath"].(string)
	env.images.Wait()

	for _, old := range []string{first, second} {
		if _, err := os.Stat(filepath.Join(env.root, filepath.FromSlash(old))); !os.IsNotExist(err) {
			t.Fatalf("expected old image %s removed, stat err = %v", old, err)
		}
	}
	if _, err := os.Stat(filepath.Join(env.root, filepath.FromSlash(third))); err != nil {
		t.Fatalf("expected latest image kept: %v", err)
	}
}

func TestIntegration_Status(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupAndLogin(t, "status@example.com", "Status")

	status, body := env.do(t, http.MethodGet, "/auth/status", token, nil, "")
	if status != http.StatusOK || body["status"] != "I am new!" {
		t.Fatalf("get status: got %d (%v)", status, body)
	}

	status, body = env.doJSON(t, http.MethodPatch, "/auth/status", token, map[string]string{"status": "Working"})
	if status != http.StatusOK || body["status"] != "Working" {
		t.Fatalf("update status: got %d (%v)", status, body)
	}

	status, _ = env.doJSON(t, http.MethodPatch, "/auth/status", token, map[string]string{"status": ""})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("blank status: expected 422, got %d", status)
	}
}
