package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/applebridge/internal/apps"
	"github.com/starford/applebridge/internal/models"
)

var calendarOperations = []string{"search", "list", "create", "open"}

func calendarTool() mcp.Tool {
	return mcp.NewTool("calendar",
		mcp.WithDescription("Search, create, and open calendar events in Apple Calendar app."),
		mcp.WithString("operation", mcp.Required(),
			mcp.Description("Operation to perform: 'search', 'open', 'list', or 'create'"),
			mcp.Enum(calendarOperations...)),
		mcp.WithString("search_text", mcp.Description("Text to search for in event titles, locations, and notes (required for search)")),
		mcp.WithString("event_id", mcp.Description("ID of the event to open (required for open operation)")),
		mcp.WithNumber("limit", mcp.Description("Number of events to retrieve (optional, default 10)")),
		mcp.WithString("from_date", mcp.Description("Start date for search range in ISO format (optional, default is today)")),
		mcp.WithString("to_date", mcp.Description("End date for search range in ISO format (optional)")),
		mcp.WithString("title", mcp.Description("Title of the event to create (required for create operation)")),
		mcp.WithString("start_date", mcp.Description("Start date/time of the event in ISO format (required for create)")),
		mcp.WithString("end_date", mcp.Description("End date/time of the event in ISO format (required for create)")),
		mcp.WithString("location", mcp.Description("Location of the event (optional for create operation)")),
		mcp.WithString("notes", mcp.Description("Additional notes for the event (optional for create operation)")),
		mcp.WithBoolean("is_all_day", mcp.Description("Whether the event is an all-day event (optional, default false)")),
		mcp.WithString("calendar_name", mcp.Description("Name of the calendar to create event in (optional)")),
	)
}

func (s *Server) calendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := apps.EventQuery{
		Text:  req.GetString("search_text", ""),
		From:  req.GetString("from_date", ""),
		To:    req.GetString("to_date", ""),
		Limit: req.GetInt("limit", apps.DefaultEventLimit),
	}

	switch op {
	case "search":
		if q.Text == "" {
			return mcp.NewToolResultError("Search text is required for search operation"), nil
		}
		events, err := s.svc.Calendar.Search(ctx, q)
		if err != nil {
			return failure("search events", err), nil
		}
		if len(events) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No events found matching '%s'", q.Text)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d events matching '%s':\n\n", len(events), q.Text) + formatEvents(events)), nil

	case "list":
		events, err := s.svc.Calendar.List(ctx, q)
		if err != nil {
			return failure("list events", err), nil
		}
		if len(events) == 0 {
			return mcp.NewToolResultText("No events found"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d events:\n\n", len(events)) + formatEvents(events)), nil

	case "create":
		e := apps.NewEvent{
			Title:    req.GetString("title", ""),
			Start:    req.GetString("start_date", ""),
			End:      req.GetString("end_date", ""),
			Location: req.GetString("location", ""),
			Notes:    req.GetString("notes", ""),
			AllDay:   req.GetBool("is_all_day", false),
			Calendar: req.GetString("calendar_name", ""),
		}
		if e.Title == "" || e.Start == "" || e.End == "" {
			return mcp.NewToolResultError("Title, start_date, and end_date are required for create operation"), nil
		}
		if err := s.svc.Calendar.Create(ctx, e); err != nil {
			return failure("create event", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Successfully created event '%s' from %s to %s", e.Title, e.Start, e.End)), nil

	case "open":
		id := req.GetString("event_id", "")
		if id == "" {
			return mcp.NewToolResultError("Event ID is required for open operation"), nil
		}
		title, err := s.svc.Calendar.Open(ctx, id)
		if err != nil {
			return failure("open event", err), nil
		}
		return mcp.NewToolResultText("Opened event: " + title), nil
	}
	return unknownOperation(op, calendarOperations...), nil
}

func formatEvents(events []models.Event) string {
	parts := make([]string, 0, len(events))
	for _, e := range events {
		parts = append(parts, fmt.Sprintf("%s (%s - %s)\nLocation: %s\nCalendar: %s\nID: %s",
			e.Title, e.Start, e.End, e.Location, e.Calendar, e.ID))
	}
	return strings.Join(parts, "\n\n")
}
