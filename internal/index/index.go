package index

// PostIndex is the query surface the API and MCP server depend on.
type PostIndex interface {
	UpsertPost(p PostRow) error
	DeletePost(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	GetPost(path string) (*PostRow, error)
	ListPosts(q ListQuery) ([]PostRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Series() ([]SeriesCount, error)
	Close() error
}

var _ PostIndex = (*DB)(nil)
