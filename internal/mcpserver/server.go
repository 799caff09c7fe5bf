// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the blog's posts to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/blogula/internal/index"
	"github.com/starford/blogula/internal/parser"
	"github.com/starford/blogula/internal/postservice"
	"github.com/starford/blogula/internal/storage"
)

const formatURI = "blogula://markup-format"

// RebuildFunc rebuilds the post collection after a post was written.
type RebuildFunc func(ctx context.Context) error

// Server wraps the MCP server with the blog tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *postservice.Service
	store   storage.Provider
	rebuild RebuildFunc
}

// New creates a new MCP server with all tools registered. rebuild may be
// nil, in which case created posts show up on the next build only.
func New(svc *postservice.Service, store storage.Provider, rebuild RebuildFunc) *Server {
	s := &Server{svc: svc, store: store, rebuild: rebuild}

	s.mcp = server.NewMCPServer(
		"Blogula",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List posts newest first, optionally only those of one series."),
		mcp.WithString("series", mcp.Description("Optional series name")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of posts (default all)")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read a post as plain text along with its neighbours."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Source path of the post relative to the posts directory")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through post titles, bodies and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("list_series",
		mcp.WithDescription("List the registered series with their post counts."),
	), s.listSeries)

	s.mcp.AddTool(mcp.NewTool("get_markup_contract",
		mcp.WithDescription("Returns the post markup format. "+
			"Call this before drafting posts to ensure correct structure."),
	), s.getMarkupContract)

	s.mcp.AddTool(mcp.NewTool("validate_post",
		mcp.WithDescription("Parse a post file name and body exactly as the build would, without saving anything."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name, e.g. 2024.01.31 - Title.txt")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Post body in the markup format")),
	), s.validatePost)

	s.mcp.AddTool(mcp.NewTool("create_post",
		mcp.WithDescription("Create a new post. The draft is validated first and "+
			"rejected if it does not parse. Read the contract via get_markup_contract or the "+
			formatURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Relative path for the new post, e.g. 2024/2024.01.31 - Title.txt")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Post body in the markup format")),
	), s.createPost)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Post Markup Format",
			mcp.WithResourceDescription("Markup format that every post must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := index.ListQuery{
		Series: req.GetString("series", ""),
		Limit:  req.GetInt("limit", 0),
	}
	posts, total, err := s.svc.ListPosts(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("no posts found"), nil
	}
	return jsonResult(posts), nil
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.svc.GetPost(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(post), nil
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}
	return jsonResult(results), nil
}

func (s *Server) listSeries(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	series, err := s.svc.Series(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(series), nil
}

func (s *Server) getMarkupContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkupFormatContract), nil
}

func (s *Server) validatePost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Validate(ctx, name, content)), nil
}

func (s *Server) createPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !parser.IsPostPath(name) {
		return mcp.NewToolResultError(fmt.Sprintf("not a post file name: %s", name)), nil
	}

	if v := s.svc.Validate(ctx, name, content); !v.Valid {
		msg := v.Error
		if v.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", v.Line, msg)
		}
		return mcp.NewToolResultError("invalid post: " + msg), nil
	}

	if _, readErr := s.store.Read(name); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("post already exists: %s", name)), nil
	}
	if err := s.store.Write(name, []byte(content)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if s.rebuild != nil {
		if err := s.rebuild(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("created %s but rebuild failed: %v", name, err)), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", name)), nil
}

func (s *Server) readFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     MarkupFormatContract,
		},
	}, nil
}
