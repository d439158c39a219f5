package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func webSearchTool() mcp.Tool {
	return mcp.NewTool("web_search",
		mcp.WithDescription("Search the web using DuckDuckGo and retrieve content from search results."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query to look up")),
	)
}

func (s *Server) webSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error performing web search: %s", describe(err))), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No results found for '%s'", query)), nil
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("[%s] %s - %s\ncontent: %s", r.URL, r.Title, r.Snippet, r.Content))
	}
	return mcp.NewToolResultText(fmt.Sprintf("Found %d results for '%s':\n\n", len(results), query) + strings.Join(parts, "\n\n")), nil
}
