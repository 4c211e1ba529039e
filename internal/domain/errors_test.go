package domain_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/msomdec/postfeed/internal/domain"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("get post: %w", domain.NotFound("Could not find post."))

	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected wrapped not-found error to match ErrNotFound")
	}
	if errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("not-found error must not match ErrForbidden")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   domain.Kind
		status int
	}{
		{"invalid", domain.Invalid([]domain.FieldError{{Field: "title", Message: "Title is invalid."}}), domain.KindInvalidInput, http.StatusUnprocessableEntity},
		{"unauthenticated", domain.ErrUnauthenticated, domain.KindUnauthenticated, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("update: %w", domain.ErrForbidden), domain.KindForbidden, http.StatusForbidden},
		{"conflict", domain.ErrDuplicateEmail, domain.KindConflict, http.StatusConflict},
		{"rate limited", domain.ErrRateLimited, domain.KindRateLimited, http.StatusTooManyRequests},
		{"plain", errors.New("boom"), domain.KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind := domain.KindOf(tc.err)
			if kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, kind)
			}
			if kind.HTTPStatus() != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, kind.HTTPStatus())
			}
		})
	}
}
