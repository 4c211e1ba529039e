package graph

import (
	"context"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/msomdec/postfeed/internal/domain"
	"github.com/msomdec/postfeed/internal/service"
)

// Resolver is the root resolver for both queries and mutations.
type Resolver struct {
	auth  *service.AuthService
	posts *service.PostService
}

// NewResolver creates a Resolver.
func NewResolver(auth *service.AuthService, posts *service.PostService) *Resolver {
	return &Resolver{auth: auth, posts: posts}
}

type userInput struct {
	Email    string
	Name     string
	Password string
}

type postInput struct {
	Title    string
	Content  string
	ImageURL string
}

func (in postInput) toService() service.PostInput {
	return service.PostInput{Title: in.Title, Content: in.Content, ImageURL: in.ImageURL}
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authDataResolver, error) {
	res, err := r.auth.Login(ctx, args.Email, args.Password)
	if err != nil {
		return nil, wrap(ctx, "login user", err)
	}
	return &authDataResolver{res: res}, nil
}

func (r *Resolver) LoadPosts(ctx context.Context, args struct{ Page *int32 }) (*postDataResolver, error) {
	page := 1
	if args.Page != nil {
		page = int(*args.Page)
	}
	result, err := r.posts.List(ctx, page)
	if err != nil {
		return nil, wrap(ctx, "list posts", err)
	}
	return &postDataResolver{page: result}, nil
}

func (r *Resolver) GetPost(ctx context.Context, args struct{ ID graphql.ID }) (*postResolver, error) {
	post, err := r.posts.Get(ctx, string(args.ID))
	if err != nil {
		return nil, wrap(ctx, "get post", err)
	}
	return &postResolver{post: *post}, nil
}

func (r *Resolver) UserStatus(ctx context.Context) (string, error) {
	status, err := r.auth.Status(ctx)
	return status, wrap(ctx, "get status", err)
}

func (r *Resolver) User(ctx context.Context) (*userResolver, error) {
	user, err := r.auth.CurrentUser(ctx)
	if err != nil {
		return nil, wrap(ctx, "get user", err)
	}
	return &userResolver{user: user, posts: r.posts}, nil
}

func (r *Resolver) CreateUser(ctx context.Context, args struct{ UserInput userInput }) (*userResolver, error) {
	user, err := r.auth.Signup(ctx, service.SignupInput{
		Email:    args.UserInput.Email,
		Name:     args.UserInput.Name,
		Password: args.UserInput.Password,
	})
	if err != nil {
		return nil, wrap(ctx, "signup user", err)
	}
	return &userResolver{user: user, posts: r.posts}, nil
}

func (r *Resolver) CreatePost(ctx context.Context, args struct{ PostInput postInput }) (*postResolver, error) {
	post, err := r.posts.Create(ctx, args.PostInput.toService())
	if err != nil {
		return nil, wrap(ctx, "create post", err)
	}
	return &postResolver{post: *post}, nil
}

func (r *Resolver) UpdatePost(ctx context.Context, args struct {
	ID        graphql.ID
	PostInput postInput
}) (*postResolver, error) {
	post, err := r.posts.Update(ctx, string(args.ID), args.PostInput.toService())
	if err != nil {
		return nil, wrap(ctx, "update post", err)
	}
	return &postResolver{post: *post}, nil
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	if err := r.posts.Delete(ctx, string(args.ID)); err != nil {
		return false, wrap(ctx, "delete post", err)
	}
	return true, nil
}

func (r *Resolver) UpdateUserStatus(ctx context.Context, args struct{ Status string }) (*userResolver, error) {
	user, err := r.auth.UpdateStatus(ctx, args.Status)
	if err != nil {
		return nil, wrap(ctx, "update status", err)
	}
	return &userResolver{user: user, posts: r.posts}, nil
}

type authDataResolver struct {
	res *service.LoginResult
}

func (r *authDataResolver) Token() string  { return r.res.Token }
func (r *authDataResolver) UserID() string { return r.res.UserID }

type postDataResolver struct {
	page *domain.PostPage
}

func (r *postDataResolver) Posts() []*postResolver {
	return toPostResolvers(r.page.Posts)
}

func (r *postDataResolver) TotalPosts() int32 { return int32(r.page.TotalCount) }

type postResolver struct {
	post domain.FeedPost
}

func toPostResolvers(posts []domain.FeedPost) []*postResolver {
	out := make([]*postResolver, len(posts))
	for i := range posts {
		out[i] = &postResolver{post: posts[i]}
	}
	return out
}

func (r *postResolver) ID() graphql.ID    { return graphql.ID(r.post.ID) }
func (r *postResolver) Title() string     { return r.post.Title }
func (r *postResolver) Content() string   { return r.post.Content }
func (r *postResolver) ImageURL() string  { return r.post.ImageURL }
func (r *postResolver) CreatedAt() string { return formatTime(r.post.CreatedAt) }
func (r *postResolver) UpdatedAt() string { return formatTime(r.post.UpdatedAt) }

func (r *postResolver) Creator() *creatorResolver {
	return &creatorResolver{creator: r.post.Creator}
}

type creatorResolver struct {
	creator domain.UserSummary
}

func (r *creatorResolver) ID() graphql.ID { return graphql.ID(r.creator.ID) }
func (r *creatorResolver) Name() string   { return r.creator.Name }

type userResolver struct {
	user  *domain.User
	posts *service.PostService
}

func (r *userResolver) ID() graphql.ID { return graphql.ID(r.user.ID) }
func (r *userResolver) Name() string   { return r.user.Name }
func (r *userResolver) Email() string  { return r.user.Email }
func (r *userResolver) Status() string { return r.user.Status }

func (r *userResolver) Posts(ctx context.Context) ([]*postResolver, error) {
	owned, err := r.posts.OwnedBy(ctx, r.user)
	if err != nil {
		return nil, wrap(ctx, "list user posts", err)
	}
	return toPostResolvers(owned), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
