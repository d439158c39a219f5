package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/applebridge/internal/models"
)

// maxListedContacts bounds the full address book listing.
const maxListedContacts = 50

func contactsTool() mcp.Tool {
	return mcp.NewTool("contacts",
		mcp.WithDescription("Search and retrieve contacts from Apple Contacts app."),
		mcp.WithString("name", mcp.Description("Name to search for (optional - if not provided, returns all contacts). Can be partial name to search.")),
	)
}

func (s *Server) contacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name != "" {
		found, err := s.svc.Contacts.Find(ctx, name)
		if err != nil {
			return failure("access contacts", err), nil
		}
		if len(found) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No contact found for %q. Try a different name or use no name parameter to list all contacts.", name)), nil
		}
		return mcp.NewToolResultText(formatContacts(found)), nil
	}

	all, err := s.svc.Contacts.All(ctx)
	if err != nil {
		return failure("access contacts", err), nil
	}
	if len(all) == 0 {
		return mcp.NewToolResultText("No contacts found in the address book. Please make sure you have granted access to Contacts."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d contacts", len(all))
	if len(all) > maxListedContacts {
		fmt.Fprintf(&b, " (showing first %d)", maxListedContacts)
		all = all[:maxListedContacts]
	}
	b.WriteString(":\n\n")
	b.WriteString(formatContacts(all))
	return mcp.NewToolResultText(b.String()), nil
}

func formatContacts(cs []models.Contact) string {
	lines := make([]string, 0, len(cs))
	for _, c := range cs {
		lines = append(lines, fmt.Sprintf("%s: %s", c.Name, strings.Join(c.Phones, ", ")))
	}
	return strings.Join(lines, "\n")
}
