package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// PermissionsURI is the resource URI of PermissionsGuide.
const PermissionsURI = "applebridge://permissions"

// PermissionsGuide describes the macOS privacy settings the tools depend on.
const PermissionsGuide = `# macOS Permissions

Every tool except ` + "`" + `web_search` + "`" + ` drives a macOS application through Apple Events.
macOS asks once per application; a denied prompt makes the tool report that the
application cannot be accessed.

## Automation

System Settings > Privacy & Security > Automation. Enable the host application
(Terminal, your editor, or the MCP client) for:

- Contacts
- Notes
- Messages
- Mail
- Calendar
- Reminders
- Maps

Contacts, Calendar and Reminders are also listed under their own Privacy &
Security pages and must be enabled there.

## Full Disk Access

The ` + "`" + `messages` + "`" + ` operations ` + "`" + `conversations` + "`" + ` and ` + "`" + `searchHistory` + "`" + ` read
` + "`" + `~/Library/Messages/chat.db` + "`" + ` directly. Grant Full Disk Access to the host
application under System Settings > Privacy & Security > Full Disk Access, then
restart it.

## Resetting a denied prompt

` + "```" + `sh
tccutil reset AppleEvents
` + "```" + `

The next tool call will prompt again.

## Limits

- Messages cannot schedule messages.
- Maps guides cannot be listed, created or edited.
- Maps search opens the Maps app; results are not returned.
`

func (s *Server) permissionsGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PermissionsGuide), nil
}

func (s *Server) readPermissionsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PermissionsURI,
			MIMEType: "text/markdown",
			Text:     PermissionsGuide,
		},
	}, nil
}
