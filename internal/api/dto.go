package api

import (
	"github.com/starford/blogula/internal/index"
	"github.com/starford/blogula/internal/postservice"
)

// Domain payloads served as-is.
type (
	PostSummary = postservice.PostSummary
	PostDetail  = postservice.PostDetail
	SeriesInfo  = postservice.SeriesInfo
	Validation  = postservice.Validation
)

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []PostSummary `json:"posts"`
	Total int           `json:"total"`
}

// SeriesListResponse lists the registered series.
type SeriesListResponse struct {
	Series []SeriesInfo `json:"series"`
}

// SeriesPostsResponse lists one series, oldest post first.
type SeriesPostsResponse struct {
	Series string        `json:"series"`
	Posts  []PostSummary `json:"posts"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

func searchResults(in []index.SearchResult) []SearchResult {
	out := make([]SearchResult, len(in))
	for i, r := range in {
		out[i] = SearchResult{Path: r.Path, Title: r.Title, URL: r.URL, Snippet: r.Snippet}
	}
	return out
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// ValidateRequest is the request body for validating a post draft.
type ValidateRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
