package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blogula/internal/apperr"
	"github.com/starford/blogula/internal/index"
	"github.com/starford/blogula/internal/postservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *postservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service) *Handler {
	return &Handler{svc: svc}
}

// postPath extracts the post source path from the URL (everything after
// /api/posts/). Encoded slashes are accepted.
func postPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, op string, err error, attrs ...any) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, postservice.ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("site not built yet"))
	default:
		slog.Error(op+" failed", append(attrs, slog.String("error", err.Error()))...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListPosts handles GET /api/posts.
//
//	@Summary	List posts newest first with optional pagination and filtering
//	@Param		limit	query	int		false	"Page size"
//	@Param		offset	query	int		false	"Page offset"
//	@Param		series	query	string	false	"Filter by series"
//	@Param		tag		query	string	false	"Filter by tag"
//	@Success	200		{object}	PostListResponse
//	@Router		/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListPosts(r.Context(), index.ListQuery{
		Limit:  limit,
		Offset: offset,
		Series: q.Get("series"),
		Tag:    q.Get("tag"),
	})
	if err != nil {
		writeError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: items, Total: total})
}

// GetPost handles GET /api/posts/*.
//
//	@Summary	Get a single post by source path
//	@Param		path	path		string	true	"Post source path"
//	@Success	200		{object}	PostDetail
//	@Failure	404		{object}	errResponse
//	@Router		/posts/{path} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	post, err := h.svc.GetPost(r.Context(), path)
	if err != nil {
		writeError(w, "get post", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// ListSeries handles GET /api/series.
func (h *Handler) ListSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.svc.Series(r.Context())
	if err != nil {
		writeError(w, "list series", err)
		return
	}
	writeJSON(w, http.StatusOK, SeriesListResponse{Series: series})
}

// SeriesPosts handles GET /api/series/{name}.
func (h *Handler) SeriesPosts(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("series name is required"))
		return
	}
	posts, err := h.svc.SeriesPosts(r.Context(), name)
	if err != nil {
		writeError(w, "series posts", err, slog.String("series", name))
		return
	}
	writeJSON(w, http.StatusOK, SeriesPostsResponse{Series: name, Posts: posts})
}

// Search handles GET /api/search.
//
//	@Summary	Full-text search across posts
//	@Param		q		query		string	true	"Search query"
//	@Param		limit	query		int		false	"Max results"
//	@Success	200		{object}	SearchResponse
//	@Failure	400		{object}	errResponse
//	@Router		/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: searchResults(results)})
}

// Validate handles POST /api/validate. Invalid markup is a 200 with
// valid=false; only a malformed request is a 400.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Validate(r.Context(), req.Name, req.Content))
}
