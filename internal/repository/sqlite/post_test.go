package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/msomdec/postfeed/internal/domain"
	"github.com/msomdec/postfeed/internal/repository/sqlite"
)

func createPost(t *testing.T, repo domain.PostRepository, creatorID, title string) *domain.Post {
	t.Helper()
	post := &domain.Post{
		Title:     title,
		Content:   "Some content",
		ImageURL:  "images/" + title + ".png",
		CreatorID: creatorID,
	}
	if err := repo.Create(context.Background(), post); err != nil {
		t.Fatalf("Create post: %v", err)
	}
	return post
}

func TestPostRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db.Users(), "author@example.com")
	repo := sqlite.NewPostRepository(db)
	ctx := context.Background()

	post := createPost(t, repo, user.ID, "Hello")
	if post.ID == "" || post.CreatedAt.IsZero() {
		t.Fatalf("expected ID and CreatedAt to be assigned, got %+v", post)
	}

	found, err := repo.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.Title != "Hello" || found.CreatorID != user.ID {
		t.Fatalf("unexpected post %+v", found)
	}

	byImage, err := repo.GetByImageURL(ctx, "images/Hello.png")
	if err != nil {
		t.Fatalf("GetByImageURL: %v", err)
	}
	if byImage.ID != post.ID {
		t.Fatalf("expected post %s by image, got %s", post.ID, byImage.ID)
	}
}

func TestPostRepository_Create_UnknownCreator(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewPostRepository(db)

	err := repo.Create(context.Background(), &domain.Post{Title: "Orphan", Content: "Body", ImageURL: "x", CreatorID: "ghost"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostRepository_ListPage(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db.Users(), "pager@example.com")
	repo := sqlite.NewPostRepository(db)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		createPost(t, repo, user.ID, fmt.Sprintf("P%d", i))
	}

	tests := []struct {
		offset int
		want   []string
	}{
		{0, []string{"P5", "P4"}},
		{2, []string{"P3", "P2"}},
		{4, []string{"P1"}},
		{6, nil},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("offset %d", tc.offset), func(t *testing.T) {
			posts, total, err := repo.ListPage(ctx, tc.offset, 2)
			if err != nil {
				t.Fatalf("ListPage: %v", err)
			}
			if total != 5 {
				t.Fatalf("expected total 5, got %d", total)
			}
			if len(posts) != len(tc.want) {
				t.Fatalf("expected %d posts, got %d", len(tc.want), len(posts))
			}
			for i, p := range posts {
				if p.Title != tc.want[i] {
					t.Fatalf("position %d: expected %s, got %s", i, tc.want[i], p.Title)
				}
			}
		})
	}
}

func TestPostRepository_UpdateKeepsCreator(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db.Users(), "owner@example.com")
	other := createUser(t, db.Users(), "other@example.com")
	repo := sqlite.NewPostRepository(db)
	ctx := context.Background()

	post := createPost(t, repo, owner.ID, "Original")

	post.Title = "Changed"
	post.ImageURL = "images/new.png"
	post.CreatorID = other.ID
	if err := repo.Update(ctx, post); err != nil {
		t.Fatalf("Update: %v", err)
	}

	found, err := repo.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.Title != "Changed" || found.ImageURL != "images/new.png" {
		t.Fatalf("update not persisted: %+v", found)
	}
	if found.CreatorID != owner.ID {
		t.Fatalf("creator must not change, got %s", found.CreatorID)
	}
}

func TestPostRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db.Users(), "deleter@example.com")
	repo := sqlite.NewPostRepository(db)
	ctx := context.Background()

	post := createPost(t, repo, user.ID, "Doomed")

	if err := repo.Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
