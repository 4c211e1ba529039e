// Package graph exposes the feed as a GraphQL API.
package graph

import (
	_ "embed"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/msomdec/postfeed/internal/service"
)

//go:embed schema.graphql
var schemaSDL string

// MaxDepth bounds query nesting.
const MaxDepth = 8

// NewSchema parses the schema and binds it to the services.
func NewSchema(auth *service.AuthService, posts *service.PostService) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, NewResolver(auth, posts),
		graphql.MaxDepth(MaxDepth),
	)
}

// NewHandler returns the /graphql endpoint.
func NewHandler(schema *graphql.Schema) http.Handler {
	return &relay.Handler{Schema: schema}
}
