package graph

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/postfeed/internal/domain"
)

// Error is returned from resolvers. Its extensions carry the same status and
// field data the REST facade returns.
type Error struct {
	Message string
	Status  int
	Data    []map[string]string
}

func (e *Error) Error() string { return e.Message }

// Extensions is read by graphql-go when building the response.
func (e *Error) Extensions() map[string]any {
	ext := map[string]any{"status": e.Status}
	if len(e.Data) > 0 {
		ext["data"] = e.Data
	}
	return ext
}

// wrap converts a service error. Unclassified errors are logged and masked.
func wrap(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Kind == domain.KindInternal {
		slog.ErrorContext(ctx, op, "error", err)
		return &Error{Message: "An unexpected error occurred.", Status: http.StatusInternalServerError}
	}

	gerr := &Error{Message: derr.Message, Status: derr.Kind.HTTPStatus()}
	for _, f := range derr.Fields {
		gerr.Data = append(gerr.Data, map[string]string{"field": f.Field, "message": f.Message})
	}
	return gerr
}
