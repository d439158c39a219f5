package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/applebridge/internal/apps"
)

var messageOperations = []string{"send", "read", "schedule", "unread", "conversations", "searchHistory"}

func messagesTool() mcp.Tool {
	return mcp.NewTool("messages",
		mcp.WithDescription("Interact with Apple Messages app - send, read, schedule messages and check unread messages. "+
			"'conversations' and 'searchHistory' read the local message history and need Full Disk Access."),
		mcp.WithString("operation", mcp.Required(),
			mcp.Description("Operation to perform: 'send', 'read', 'schedule', 'unread', 'conversations', or 'searchHistory'"),
			mcp.Enum(messageOperations...)),
		mcp.WithString("phone_number", mcp.Description("Phone number for send, read, and schedule operations")),
		mcp.WithString("message", mcp.Description("Message to send (required for send and schedule operations)")),
		mcp.WithNumber("limit", mcp.Description("Number of messages to read (optional, default 10)")),
		mcp.WithString("scheduled_time", mcp.Description("ISO string of when to send message (required for schedule operation)")),
		mcp.WithString("search_text", mcp.Description("Text to look for in past messages (required for searchHistory operation)")),
	)
}

func (s *Server) messages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	phone := req.GetString("phone_number", "")
	text := req.GetString("message", "")
	limit := req.GetInt("limit", apps.DefaultMessagesLimit)

	switch op {
	case "send":
		if phone == "" || text == "" {
			return mcp.NewToolResultError("Phone number and message are required for send operation"), nil
		}
		if err := s.svc.Messages.Send(ctx, apps.Outgoing{To: phone, Body: text}); err != nil {
			return failure("send message", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Message sent successfully to %s: %s", phone, text)), nil

	case "read":
		if phone == "" {
			return mcp.NewToolResultError("Phone number is required for read operation"), nil
		}
		msgs, err := s.svc.Messages.Read(ctx, phone, limit)
		if err != nil {
			return failure("read messages", err), nil
		}
		if len(msgs) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No messages found with %s", phone)), nil
		}
		lines := make([]string, 0, len(msgs))
		for _, m := range msgs {
			lines = append(lines, fmt.Sprintf("[%s] %s: %s", m.Time, m.Sender, m.Content))
		}
		return mcp.NewToolResultText(fmt.Sprintf("Last %d messages with %s:\n\n", len(msgs), phone) + strings.Join(lines, "\n")), nil

	case "schedule":
		when := req.GetString("scheduled_time", "")
		if phone == "" || text == "" || when == "" {
			return mcp.NewToolResultError("Phone number, message, and scheduled_time are required for schedule operation"), nil
		}
		if err := s.svc.Messages.Schedule(ctx, apps.Outgoing{To: phone, Body: text}, when); err != nil {
			return failure("schedule message", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Message scheduled successfully to %s at %s: %s", phone, when, text)), nil

	case "unread":
		n, err := s.svc.Messages.UnreadCount(ctx)
		if err != nil {
			return failure("count unread messages", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("You have %d unread messages", n)), nil

	case "conversations":
		convs, err := s.svc.Messages.Conversations(ctx, limit)
		if err != nil {
			return failure("list conversations", err), nil
		}
		if len(convs) == 0 {
			return mcp.NewToolResultText("No conversations found"), nil
		}
		lines := make([]string, 0, len(convs))
		for _, c := range convs {
			line := fmt.Sprintf("• %s (%s, %d messages", c.Label(), c.ChatID, c.MessageCount)
			if !c.LastMessage.IsZero() {
				line += ", last " + c.LastMessage.Format("Jan 2, 2006 3:04 PM")
			}
			lines = append(lines, line+")")
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d conversations:\n\n", len(convs)) + strings.Join(lines, "\n")), nil

	case "searchHistory":
		query := req.GetString("search_text", "")
		if query == "" {
			return mcp.NewToolResultError("Search text is required for searchHistory operation"), nil
		}
		msgs, err := s.svc.Messages.SearchHistory(ctx, query, limit)
		if err != nil {
			return failure("search message history", err), nil
		}
		if len(msgs) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No messages found matching '%s'", query)), nil
		}
		lines := make([]string, 0, len(msgs))
		for _, m := range msgs {
			lines = append(lines, fmt.Sprintf("[%s] %s (%s): %s", m.Time, m.Sender, m.ChatID, m.Content))
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d messages matching '%s':\n\n", len(msgs), query) + strings.Join(lines, "\n")), nil
	}
	return unknownOperation(op, messageOperations...), nil
}
