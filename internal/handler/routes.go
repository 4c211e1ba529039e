package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/msomdec/postfeed/internal/metrics"
	"github.com/msomdec/postfeed/internal/service"
)

// Deps are the services and sub-handlers mounted by NewRouter. GraphQL,
// Socket and Events are optional.
type Deps struct {
	Auth     *service.AuthService
	Posts    *service.PostService
	Images   *service.ImageService
	ImageDir string // served at /images/

	GraphQL http.Handler
	Socket  http.Handler
	Events  http.Handler
}

// NewRouter builds the HTTP handler for the whole API.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(RequestID, metrics.Middleware, Authenticate(d.Auth))

	r.HandleFunc("/healthz", HandleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	auth := NewAuthHandler(d.Auth)
	r.HandleFunc("/auth/signup", auth.HandleSignup).Methods(http.MethodPut)
	r.HandleFunc("/auth/login", auth.HandleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/status", auth.HandleGetStatus).Methods(http.MethodGet)
	r.HandleFunc("/auth/status", auth.HandleUpdateStatus).Methods(http.MethodPatch)

	feed := NewFeedHandler(d.Posts, d.Images)
	r.HandleFunc("/feed/posts", feed.HandleListPosts).Methods(http.MethodGet)
	r.HandleFunc("/feed/post", feed.HandleCreatePost).Methods(http.MethodPost)
	r.HandleFunc("/feed/post/{postId}", feed.HandleGetPost).Methods(http.MethodGet)
	r.HandleFunc("/feed/post/{postId}", feed.HandleUpdatePost).Methods(http.MethodPut)
	r.HandleFunc("/feed/post/{postId}", feed.HandleDeletePost).Methods(http.MethodDelete)

	images := NewImageHandler(d.Images, d.Posts)
	r.HandleFunc("/post-image", images.HandleUpload).Methods(http.MethodPut)
	if d.ImageDir != "" {
		r.PathPrefix("/images/").
			Handler(http.StripPrefix("/images/", noDirListing(http.FileServer(http.Dir(d.ImageDir))))).
			Methods(http.MethodGet, http.MethodHead)
	}

	if d.GraphQL != nil {
		r.Handle("/graphql", d.GraphQL).Methods(http.MethodPost)
	}
	if d.Socket != nil {
		r.Handle("/socket", d.Socket).Methods(http.MethodGet)
	}
	if d.Events != nil {
		r.Handle("/feed/events", d.Events).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})

	return CORS(SecurityHeaders(r))
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
