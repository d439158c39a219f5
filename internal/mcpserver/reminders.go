package mcpserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/applebridge/internal/apps"
	"github.com/starford/applebridge/internal/models"
)

var reminderOperations = []string{"list", "search", "open", "create", "listById", "lists"}

// reminderProps are the fields listById can include, in output order.
var reminderProps = []string{"name", "list", "body", "dueDate", "completed", "id"}

var defaultReminderProps = []string{"name", "completed", "dueDate"}

func remindersTool() mcp.Tool {
	return mcp.NewTool("reminders",
		mcp.WithDescription("Search, create, and open reminders in Apple Reminders app."),
		mcp.WithString("operation", mcp.Required(),
			mcp.Description("Operation to perform: 'list', 'search', 'open', 'create', 'listById', or 'lists'"),
			mcp.Enum(reminderOperations...)),
		mcp.WithString("search_text", mcp.Description("Text to search for in reminders (required for search and open operations)")),
		mcp.WithString("name", mcp.Description("Name of the reminder to create (required for create operation)")),
		mcp.WithString("list_name", mcp.Description("Name of the list to create reminder in (optional for create operation)")),
		mcp.WithString("list_id", mcp.Description("ID of the list to get reminders from (required for listById operation)")),
		mcp.WithArray("props",
			mcp.Description("Properties to include in reminders (optional for listById operation): "+strings.Join(reminderProps, ", ")),
			mcp.WithStringItems()),
		mcp.WithString("notes", mcp.Description("Additional notes for reminder (optional for create operation)")),
		mcp.WithString("due_date", mcp.Description("Due date for reminder in ISO format (optional for create operation)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of reminders to return (optional)")),
	)
}

func (s *Server) reminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 0)
	text := req.GetString("search_text", "")

	switch op {
	case "list":
		found, err := s.svc.Reminders.List(ctx, limit)
		if err != nil {
			return failure("list reminders", err), nil
		}
		if len(found) == 0 {
			return mcp.NewToolResultText("No reminders found"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d reminders:\n\n", len(found)) + formatReminders(found)), nil

	case "search":
		if text == "" {
			return mcp.NewToolResultError("Search text is required for search operation"), nil
		}
		found, err := s.svc.Reminders.Search(ctx, text, limit)
		if err != nil {
			return failure("search reminders", err), nil
		}
		if len(found) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No reminders found matching '%s'", text)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d reminders matching '%s':\n\n", len(found), text) + formatReminders(found)), nil

	case "create":
		name := req.GetString("name", "")
		if name == "" {
			return mcp.NewToolResultError("Name is required for create operation"), nil
		}
		err := s.svc.Reminders.Create(ctx, apps.NewReminder{
			Name:  name,
			List:  req.GetString("list_name", ""),
			Notes: req.GetString("notes", ""),
			Due:   req.GetString("due_date", ""),
		})
		if err != nil {
			return failure("create reminder", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Successfully created reminder '%s'", name)), nil

	case "open":
		if text == "" {
			return mcp.NewToolResultError("Search text is required for open operation"), nil
		}
		name, err := s.svc.Reminders.Open(ctx, text)
		if err != nil {
			return failure("open reminder", err), nil
		}
		return mcp.NewToolResultText("Opened reminder: " + name), nil

	case "listById":
		listID := req.GetString("list_id", "")
		if listID == "" {
			return mcp.NewToolResultError("List ID is required for listById operation"), nil
		}
		props, unknown := selectProps(req.GetStringSlice("props", nil))
		if unknown != "" {
			return mcp.NewToolResultError(fmt.Sprintf("Unknown reminder property: %s. Valid properties are: %s",
				unknown, strings.Join(reminderProps, ", "))), nil
		}
		found, err := s.svc.Reminders.ListByID(ctx, listID, limit)
		if err != nil {
			return failure("list reminders", err), nil
		}
		if len(found) == 0 {
			return mcp.NewToolResultText("No reminders found in list " + listID), nil
		}
		lines := make([]string, 0, len(found))
		for _, r := range found {
			lines = append(lines, "• "+formatProps(r, props))
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d reminders in list %s:\n\n", len(found), listID) + strings.Join(lines, "\n")), nil

	case "lists":
		lists, err := s.svc.Reminders.Lists(ctx)
		if err != nil {
			return failure("list reminder lists", err), nil
		}
		if len(lists) == 0 {
			return mcp.NewToolResultText("No reminder lists found"), nil
		}
		names := make([]string, 0, len(lists))
		for _, l := range lists {
			names = append(names, fmt.Sprintf("%s (id: %s)", l.Name, l.ID))
		}
		return mcp.NewToolResultText("Available lists: " + strings.Join(names, ", ")), nil
	}
	return unknownOperation(op, reminderOperations...), nil
}

func formatReminders(rs []models.Reminder) string {
	lines := make([]string, 0, len(rs))
	for _, r := range rs {
		lines = append(lines, fmt.Sprintf("• %s (List: %s)", r.Name, r.List))
	}
	return strings.Join(lines, "\n")
}

// selectProps returns the requested props in canonical order, or the first
// name that is not a known prop.
func selectProps(requested []string) ([]string, string) {
	if len(requested) == 0 {
		return defaultReminderProps, ""
	}
	want := make(map[string]bool, len(requested))
	for _, p := range requested {
		want[p] = true
	}
	var out []string
	for _, p := range reminderProps {
		if want[p] {
			out = append(out, p)
			delete(want, p)
		}
	}
	for _, p := range requested {
		if want[p] {
			return nil, p
		}
	}
	return out, ""
}

func formatProps(r models.Reminder, props []string) string {
	fields := make([]string, 0, len(props))
	for _, p := range props {
		var v string
		switch p {
		case "name":
			v = r.Name
		case "list":
			v = r.List
		case "body":
			v = r.Body
		case "dueDate":
			v = r.DueDate
		case "completed":
			v = strconv.FormatBool(r.Completed)
		case "id":
			v = r.ID
		}
		if v == "" {
			continue
		}
		fields = append(fields, p+": "+v)
	}
	return strings.Join(fields, ", ")
}
