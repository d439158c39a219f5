// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the macOS application adapters and web search as tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/applebridge/internal/apperr"
	"github.com/starford/applebridge/internal/apps"
	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/sse"
	"github.com/starford/applebridge/internal/websearch"
)

// Name and Version identify the server to MCP clients.
const (
	Name    = "applebridge"
	Version = "1.0.0"
)

// Services holds the adapters behind the tools.
type Services struct {
	Contacts  *apps.Contacts
	Notes     *apps.Notes
	Messages  *apps.Messages
	Mail      *apps.Mail
	Calendar  *apps.Calendar
	Reminders *apps.Reminders
	Maps      *apps.Maps
	Search    *websearch.Client
}

// NewServices builds every adapter on top of b. history and search may be nil.
func NewServices(b *bridge.Bridge, notesFolder string, history apps.History, search *websearch.Client) Services {
	if search == nil {
		search = websearch.New()
	}
	return Services{
		Contacts:  apps.NewContacts(b),
		Notes:     apps.NewNotes(b, notesFolder),
		Messages:  apps.NewMessages(b, history),
		Mail:      apps.NewMail(b),
		Calendar:  apps.NewCalendar(b),
		Reminders: apps.NewReminders(b),
		Maps:      apps.NewMaps(b),
		Search:    search,
	}
}

// Publisher receives one event per finished tool call.
type Publisher interface {
	PublishToolEvent(ev sse.ToolEvent)
}

// Server wraps the MCP server with the application tools.
type Server struct {
	mcp      *server.MCPServer
	svc      Services
	events   Publisher
	logger   *slog.Logger
	handlers map[string]server.ToolHandlerFunc
}

// New creates a new MCP server with every tool registered. events may be nil.
func New(svc Services, events Publisher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:      svc,
		events:   events,
		logger:   logger,
		handlers: make(map[string]server.ToolHandlerFunc),
	}

	s.mcp = server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.addTool(contactsTool(), s.contacts)
	s.addTool(notesTool(), s.notes)
	s.addTool(messagesTool(), s.messages)
	s.addTool(mailTool(), s.mail)
	s.addTool(remindersTool(), s.reminders)
	s.addTool(calendarTool(), s.calendar)
	s.addTool(mapsTool(), s.maps)
	s.addTool(webSearchTool(), s.webSearch)

	s.addTool(mcp.NewTool("permissions_guide",
		mcp.WithDescription("Returns the macOS privacy settings this server needs. "+
			"Call this when a tool reports that an application cannot be accessed."),
	), s.permissionsGuide)

	s.mcp.AddResource(
		mcp.NewResource(PermissionsURI, "macOS Permissions Guide",
			mcp.WithResourceDescription("Automation and Full Disk Access settings required by the tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPermissionsResource,
	)

	return s
}

// Listen serves MCP over newline-delimited JSON-RPC on in/out until in is
// exhausted or ctx is done.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HTTPHandler serves MCP over the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) addTool(tool mcp.Tool, h server.ToolHandlerFunc) {
	wrapped := s.instrument(tool.Name, h)
	s.handlers[tool.Name] = wrapped
	s.mcp.AddTool(tool, wrapped)
}

// instrument logs every call and publishes its outcome.
func (s *Server) instrument(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		started := time.Now()
		res, err := h(ctx, req)

		ev := sse.ToolEvent{
			Tool:       name,
			Operation:  req.GetString("operation", ""),
			DurationMS: time.Since(started).Milliseconds(),
		}
		switch {
		case err != nil:
			ev.Error = err.Error()
		case res != nil && res.IsError:
			ev.Error = resultText(res)
		}

		attrs := []any{
			slog.String("tool", name),
			slog.String("operation", ev.Operation),
			slog.Int64("duration_ms", ev.DurationMS),
		}
		if ev.Error != "" {
			s.logger.Warn("tool call failed", append(attrs, slog.String("error", ev.Error))...)
		} else {
			s.logger.Info("tool call", attrs...)
		}
		if s.events != nil {
			s.events.PublishToolEvent(ev)
		}
		return res, err
	}
}

// failure renders an adapter error as a tool error result. action names
// what failed, e.g. "send message".
func failure(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %s", action, describe(err)))
}

// describe turns an adapter error into the sentence shown to the caller.
func describe(err error) string {
	if msg, ok := bridge.ScriptMessage(err); ok {
		return msg
	}
	switch {
	case errors.Is(err, apperr.ErrAccessDenied):
		return strings.TrimPrefix(err.Error(), apperr.ErrAccessDenied.Error()+": ") +
			". Grant access in System Settings > Privacy & Security > Automation (see " + PermissionsURI + ")."
	case errors.Is(err, apperr.ErrUnsupported):
		return strings.TrimPrefix(err.Error(), apperr.ErrUnsupported.Error()+": ")
	case errors.Is(err, apperr.ErrValidation):
		return strings.TrimPrefix(err.Error(), apperr.ErrValidation.Error()+": ")
	case errors.Is(err, apperr.ErrNotFound):
		return strings.TrimPrefix(err.Error(), apperr.ErrNotFound.Error()+": ")
	}
	return err.Error()
}

func unknownOperation(op string, valid ...string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Unknown operation: %s. Valid operations are: %s", op, strings.Join(valid, ", ")))
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	if tc, ok := r.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}
