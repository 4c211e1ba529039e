package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/msomdec/postfeed/internal/domain"
	"github.com/msomdec/postfeed/internal/metrics"
)

// DefaultPerPage is the feed page size.
const DefaultPerPage = 2

var errPostNotFound = domain.NotFound("Could not find post.")

// PostService orchestrates post operations, keeping the owner's post list,
// stored images and connected subscribers consistent with the post records.
type PostService struct {
	posts    domain.PostRepository
	users    domain.UserRepository
	images   *ImageService
	notifier domain.Notifier
	perPage  int
}

// NewPostService creates a new PostService. notifier may be nil.
func NewPostService(posts domain.PostRepository, users domain.UserRepository, images *ImageService, notifier domain.Notifier, perPage int) *PostService {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &PostService{
		posts:    posts,
		users:    users,
		images:   images,
		notifier: notifier,
		perPage:  perPage,
	}
}

// List returns one page of the feed, newest first. Pages below 1 are treated
// as page 1.
func (s *PostService) List(ctx context.Context, page int) (*domain.PostPage, error) {
	if _, err := RequireIdentity(ctx); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	posts, total, err := s.posts.ListPage(ctx, (page-1)*s.perPage, s.perPage)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	feed, err := s.withCreators(ctx, posts)
	if err != nil {
		return nil, err
	}

	return &domain.PostPage{
		Posts:      feed,
		TotalCount: total,
		Page:       page,
		PerPage:    s.perPage,
	}, nil
}

// Get returns a single post with its creator.
func (s *PostService) Get(ctx context.Context, id string) (*domain.FeedPost, error) {
	if _, err := RequireIdentity(ctx); err != nil {
		return nil, err
	}

	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	feed, err := s.withCreators(ctx, []domain.Post{*post})
	if err != nil {
		return nil, err
	}
	return &feed[0], nil
}

// OwnedBy returns the posts listed on user, oldest first. References to
// posts that no longer exist are skipped.
func (s *PostService) OwnedBy(ctx context.Context, user *domain.User) ([]domain.FeedPost, error) {
	posts := make([]domain.Post, 0, len(user.PostIDs))
	for _, id := range user.PostIDs {
		p, err := s.posts.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get post %s: %w", id, err)
		}
		posts = append(posts, *p)
	}
	return s.withCreators(ctx, posts)
}

// Create stores a new post owned by the caller and links it to the caller's
// post list. If linking fails the post record is removed again.
func (s *PostService) Create(ctx context.Context, in PostInput) (*domain.FeedPost, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}

	creator, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("User not found.")
		}
		return nil, fmt.Errorf("get creator: %w", err)
	}
	if err := s.claimImage(ctx, id, in.ImageURL); err != nil {
		return nil, err
	}

	post := &domain.Post{
		Title:     in.Title,
		Content:   in.Content,
		ImageURL:  in.ImageURL,
		CreatorID: creator.ID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	if err := s.users.AddPost(ctx, creator.ID, post.ID); err != nil {
		if derr := s.posts.Delete(ctx, post.ID); derr != nil && !errors.Is(derr, domain.ErrNotFound) {
			slog.ErrorContext(ctx, "compensate failed post create", "post_id", post.ID, "error", derr)
		}
		return nil, fmt.Errorf("link post to creator: %w", err)
	}

	feed := &domain.FeedPost{Post: *post, Creator: domain.UserSummary{ID: creator.ID, Name: creator.Name}}
	s.notify(ctx, domain.PostCreated, *feed)
	return feed, nil
}

// Update replaces title, content and image of a post the caller owns. A
// replaced image is released only after the update is stored.
func (s *PostService) Update(ctx context.Context, postID string, in PostInput) (*domain.FeedPost, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}

	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(id, post); err != nil {
		return nil, err
	}

	oldImage := post.ImageURL
	if in.ImageURL != oldImage {
		if err := s.claimImage(ctx, id, in.ImageURL); err != nil {
			return nil, err
		}
	}
	post.Title = in.Title
	post.Content = in.Content
	post.ImageURL = in.ImageURL
	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errPostNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	if oldImage != post.ImageURL {
		s.images.Remove(oldImage)
	}

	feed, err := s.withCreators(ctx, []domain.Post{*post})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, domain.PostUpdated, feed[0])
	return &feed[0], nil
}

// Delete removes a post the caller owns. The owner reference goes first and
// the record second, so a retry after a partial failure still completes. The
// image is released in the background.
func (s *PostService) Delete(ctx context.Context, postID string) error {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return err
	}

	post, err := s.find(ctx, postID)
	if err != nil {
		return err
	}
	if err := requireOwner(id, post); err != nil {
		return err
	}

	if err := s.users.RemovePost(ctx, post.CreatorID, post.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("unlink post from creator: %w", err)
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}

	s.images.Remove(post.ImageURL)
	s.notify(ctx, domain.PostDeleted, domain.FeedPost{Post: *post, Creator: domain.UserSummary{ID: post.CreatorID}})
	return nil
}

// DiscardImage releases an uploaded image that is being replaced. Images
// still referenced by a post may only be released by that post's creator.
func (s *PostService) DiscardImage(ctx context.Context, path string) error {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	post, err := s.posts.GetByImageURL(ctx, path)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return fmt.Errorf("find image owner: %w", err)
	default:
		if err := requireOwner(id, post); err != nil {
			return err
		}
	}

	s.images.Remove(path)
	return nil
}

// claimImage rejects an image path that a post of another user refers to.
func (s *PostService) claimImage(ctx context.Context, id Identity, path string) error {
	post, err := s.posts.GetByImageURL(ctx, path)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("find image owner: %w", err)
	}
	return requireOwner(id, post)
}

func (s *PostService) find(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// withCreators resolves each post's creator with an explicit lookup, once
// per distinct creator. A creator that no longer exists resolves to an
// empty name.
func (s *PostService) withCreators(ctx context.Context, posts []domain.Post) ([]domain.FeedPost, error) {
	creators := make(map[string]domain.UserSummary)
	feed := make([]domain.FeedPost, 0, len(posts))
	for _, p := range posts {
		creator, ok := creators[p.CreatorID]
		if !ok {
			u, err := s.users.GetByID(ctx, p.CreatorID)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				creator = domain.UserSummary{ID: p.CreatorID}
			case err != nil:
				return nil, fmt.Errorf("get creator %s: %w", p.CreatorID, err)
			default:
				creator = domain.UserSummary{ID: u.ID, Name: u.Name}
			}
			creators[p.CreatorID] = creator
		}
		feed = append(feed, domain.FeedPost{Post: p, Creator: creator})
	}
	return feed, nil
}

func (s *PostService) notify(ctx context.Context, action domain.PostAction, post domain.FeedPost) {
	metrics.PostEvent(string(action))
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, domain.PostEvent{Action: action, Post: post}); err != nil {
		slog.WarnContext(ctx, "publish post event", "action", action, "post_id", post.ID, "error", err)
	}
}
