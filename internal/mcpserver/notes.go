package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/applebridge/internal/apps"
	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/models"
)

func notesTool() mcp.Tool {
	return mcp.NewTool("notes",
		mcp.WithDescription("Search, retrieve and create notes in Apple Notes app."),
		mcp.WithString("operation", mcp.Required(),
			mcp.Description("Operation to perform: 'search', 'list', or 'create'"),
			mcp.Enum("search", "list", "create")),
		mcp.WithString("search_text", mcp.Description("Text to search for in notes (required for search operation)")),
		mcp.WithString("title", mcp.Description("Title of the note to create (required for create operation)")),
		mcp.WithString("body", mcp.Description("Content of the note to create (required for create operation)")),
		mcp.WithString("folder_name", mcp.Description("Name of the folder to create the note in (optional for create, defaults to 'Claude')")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes to return (optional for search and list)")),
	)
}

func (s *Server) notes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 0)

	switch op {
	case "search":
		text := req.GetString("search_text", "")
		if text == "" {
			return mcp.NewToolResultError("Search text is required for search operation"), nil
		}
		found, err := s.svc.Notes.Search(ctx, text, limit)
		if err != nil {
			return failure("search notes", err), nil
		}
		if len(found) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No notes found matching '%s'", text)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d notes matching '%s':\n\n", len(found), text) + formatNotes(found, 200)), nil

	case "list":
		found, err := s.svc.Notes.List(ctx, limit)
		if err != nil {
			return failure("list notes", err), nil
		}
		if len(found) == 0 {
			return mcp.NewToolResultText("No notes found"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d notes:\n\n", len(found)) + formatNotes(found, 100)), nil

	case "create":
		title := req.GetString("title", "")
		body := req.GetString("body", "")
		if title == "" || body == "" {
			return mcp.NewToolResultError("Title and body are required for create operation"), nil
		}
		folder, err := s.svc.Notes.Create(ctx, apps.NewNote{
			Title:  title,
			Body:   body,
			Folder: req.GetString("folder_name", ""),
		})
		if err != nil {
			return failure("create note", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Successfully created note '%s' in folder '%s'", title, folder)), nil
	}
	return unknownOperation(op, "search", "list", "create"), nil
}

func formatNotes(ns []models.Note, preview int) string {
	parts := make([]string, 0, len(ns))
	for _, n := range ns {
		parts = append(parts, fmt.Sprintf("Title: %s\nContent: %s", n.Title, bridge.Truncate(n.Content, preview)))
	}
	return strings.Join(parts, "\n\n")
}
