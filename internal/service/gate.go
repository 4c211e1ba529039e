package service

import (
	"context"
	"strings"

	"github.com/msomdec/postfeed/internal/domain"
)

// Identity is the authenticated caller carried by a verified bearer token.
type Identity struct {
	UserID string
	Email  string
}

type identityKey struct{}

type clientKey struct{}

// WithClient returns a context carrying the caller's network address, used
// as the rate limit key for credential operations.
func WithClient(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, clientKey{}, addr)
}

// ClientFromContext returns the address attached by WithClient.
func ClientFromContext(ctx context.Context) string {
	addr, _ := ctx.Value(clientKey{}).(string)
	return addr
}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller attached by Authenticate, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// RequireIdentity is the per-operation check: it fails with
// domain.ErrUnauthenticated when the request carried no valid token.
func RequireIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.UserID == "" {
		return Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// Authenticate performs the soft gate. A valid bearer token in the
// Authorization header value attaches the caller's identity; anything else
// (absent, malformed, expired) leaves ctx unchanged so public operations keep
// working and protected ones fail in RequireIdentity.
func (s *AuthService) Authenticate(ctx context.Context, authorization string) context.Context {
	token := BearerToken(authorization)
	if token == "" {
		return ctx
	}
	id, err := s.VerifyToken(token)
	if err != nil {
		return ctx
	}
	return WithIdentity(ctx, id)
}

// BearerToken extracts the token from a "Bearer <token>" header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func requireOwner(id Identity, post *domain.Post) error {
	if post.CreatorID != id.UserID {
		return domain.ErrForbidden
	}
	return nil
}
