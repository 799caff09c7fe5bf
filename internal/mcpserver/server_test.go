package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/blogula/internal/models"
	"github.com/starford/blogula/internal/postservice"
	"github.com/starford/blogula/internal/render"
	"github.com/starford/blogula/internal/site"
	"github.com/starford/blogula/internal/storage"
	"github.com/starford/blogula/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	dir, store := testutil.WritePosts(t, map[string]string{
		"2021.01.01 - Hello.txt":  "Series: Go\nHello world.\n\n= Part =\nMore.",
		"2021.02.01 - Second.txt": "Tags: misc\nA post about uniqueword.",
	})
	r, err := render.New(render.Info{PostsDir: "posts", HomePagePath: "index.html", SourceDir: dir}, render.WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	series := models.NewSeriesSet(models.Words("Go"))
	idx := testutil.TestDB(t)
	svc := postservice.New(r, series, idx)
	builder := site.NewBuilder(store, r, series, "", site.WithIndex(idx), site.WithLogger(quiet))

	rebuild := func(ctx context.Context) error {
		res, err := builder.Build(ctx)
		if err != nil {
			return err
		}
		svc.Publish(res.DB)
		return nil
	}
	if err := rebuild(context.Background()); err != nil {
		t.Fatalf("initial build: %v", err)
	}
	return New(svc, store, rebuild), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "read_post":
		result, err = srv.readPost(ctx, req)
	case "search_posts":
		result, err = srv.searchPosts(ctx, req)
	case "list_series":
		result, err = srv.listSeries(ctx, req)
	case "get_markup_contract":
		result, err = srv.getMarkupContract(ctx, req)
	case "validate_post":
		result, err = srv.validatePost(ctx, req)
	case "create_post":
		result, err = srv.createPost(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListPosts(t *testing.T) {
	srv, _ := testServer(t)

	var all []postservice.PostSummary
	r := callTool(t, srv, "list_posts", map[string]any{})
	if err := json.Unmarshal([]byte(resultText(r)), &all); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	if len(all) != 2 || all[0].Title != "Second" {
		t.Errorf("posts = %+v", all)
	}

	var inSeries []postservice.PostSummary
	r = callTool(t, srv, "list_posts", map[string]any{"series": "Go"})
	_ = json.Unmarshal([]byte(resultText(r)), &inSeries)
	if len(inSeries) != 1 || inSeries[0].Title != "Hello" {
		t.Errorf("series posts = %+v", inSeries)
	}

	r = callTool(t, srv, "list_posts", map[string]any{"series": "Nope"})
	if got := resultText(r); got != "no posts found" {
		t.Errorf("unknown series = %q", got)
	}
}

func TestReadPost(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_post", map[string]any{"path": "2021.01.01 - Hello.txt"})
	if r.IsError {
		t.Fatalf("read error: %s", resultText(r))
	}
	var post postservice.PostDetail
	if err := json.Unmarshal([]byte(resultText(r)), &post); err != nil {
		t.Fatal(err)
	}
	if post.Body != "Hello world.\n\n= Part =\n\nMore.\n" {
		t.Errorf("body = %q", post.Body)
	}
	if post.Next == nil || post.Next.Title != "Second" {
		t.Errorf("next = %+v", post.Next)
	}
}

func TestReadPostMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_post", map[string]any{"path": "nope.txt"})
	if !r.IsError {
		t.Error("expected error for missing post")
	}
}

func TestSearchPosts(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "search_posts", map[string]any{"query": "uniqueword"})
	if !strings.Contains(resultText(r), "2021.02.01 - Second.txt") {
		t.Errorf("search = %q", resultText(r))
	}
	r = callTool(t, srv, "search_posts", map[string]any{})
	if !r.IsError {
		t.Error("expected error without query")
	}
}

func TestListSeries(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_series", map[string]any{})
	var series []postservice.SeriesInfo
	if err := json.Unmarshal([]byte(resultText(r)), &series); err != nil {
		t.Fatal(err)
	}
	if len(series) != 1 || series[0].Name != "Go" || series[0].Posts != 1 {
		t.Errorf("series = %+v", series)
	}
}

func TestGetMarkupContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_markup_contract", nil)
	if !strings.Contains(resultText(r), "YYYY.MM.DD[-N] - Title.txt") {
		t.Error("contract does not describe file names")
	}
}

func TestValidatePost(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "validate_post", map[string]any{
		"name":    "2024.01.01 - Draft.txt",
		"content": "Intro.\n\n% formula",
	})
	var v postservice.Validation
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatal(err)
	}
	if v.Valid || v.Line != 3 {
		t.Errorf("validation = %+v, want invalid at line 3", v)
	}
}

func TestCreatePost(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "create_post", map[string]any{
		"name":    "2022.05.05 - New One.txt",
		"content": "Series: Go\nFresh words.",
	})
	if got := resultText(r); got != "created: 2022.05.05 - New One.txt" {
		t.Fatalf("create result = %q", got)
	}
	if _, err := store.Read("2022.05.05 - New One.txt"); err != nil {
		t.Errorf("post not written: %v", err)
	}

	r = callTool(t, srv, "read_post", map[string]any{"path": "2022.05.05 - New One.txt"})
	if r.IsError {
		t.Errorf("new post not visible after rebuild: %s", resultText(r))
	}

	r = callTool(t, srv, "create_post", map[string]any{
		"name":    "2022.05.05 - New One.txt",
		"content": "Again.",
	})
	if !r.IsError {
		t.Error("expected error for existing post")
	}
}

func TestCreatePostRejectsInvalid(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "create_post", map[string]any{
		"name":    "2022.05.05 - Bad.txt",
		"content": "Series: Unknown\nText.",
	})
	if !r.IsError {
		t.Error("expected error for unknown series")
	}
	if _, err := store.Read("2022.05.05 - Bad.txt"); err == nil {
		t.Error("invalid post was written")
	}

	r = callTool(t, srv, "create_post", map[string]any{"name": "notes.txt", "content": "Text."})
	if !r.IsError {
		t.Error("expected error for non-post file name")
	}
}
