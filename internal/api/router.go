package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blogula/internal/postservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *postservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/posts", h.ListPosts)
	r.Get("/posts/*", h.GetPost)

	r.Get("/series", h.ListSeries)
	r.Get("/series/{name}", h.SeriesPosts)

	r.Get("/search", h.Search)
	r.Post("/validate", h.Validate)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
