package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/applebridge/internal/apps"
)

var mapsOperations = []string{"search", "save", "pin", "directions", "listGuides", "createGuide", "addToGuide"}

func mapsTool() mcp.Tool {
	return mcp.NewTool("maps",
		mcp.WithDescription("Search locations, manage guides, save favorites, and get directions using Apple Maps."),
		mcp.WithString("operation", mcp.Required(),
			mcp.Description("Operation to perform: 'search', 'save', 'pin', 'directions', 'listGuides', 'createGuide', or 'addToGuide'"),
			mcp.Enum(mapsOperations...)),
		mcp.WithString("query", mcp.Description("Search query for locations (required for search)")),
		mcp.WithString("name", mcp.Description("Name of the location (required for save and pin)")),
		mcp.WithString("address", mcp.Description("Address of the location (required for save, pin, addToGuide)")),
		mcp.WithString("from_address", mcp.Description("Starting address for directions (required for directions)")),
		mcp.WithString("to_address", mcp.Description("Destination address for directions (required for directions)")),
		mcp.WithString("transport_type", mcp.Description("Type of transport to use (optional for directions)"),
			mcp.Enum(apps.TransportDriving, apps.TransportWalking, apps.TransportTransit)),
		mcp.WithString("guide_name", mcp.Description("Name of the guide (required for createGuide and addToGuide)")),
	)
}

func (s *Server) maps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := req.GetString("name", "")
	address := req.GetString("address", "")
	guide := req.GetString("guide_name", "")

	switch op {
	case "search":
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("Search query is required for search operation"), nil
		}
		if _, err := s.svc.Maps.Search(ctx, query); err != nil {
			return failure("search Maps", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Search completed for '%s'. Please check Maps app for results.", query)), nil

	case "save":
		if name == "" || address == "" {
			return mcp.NewToolResultError("Name and address are required for save operation"), nil
		}
		if err := s.svc.Maps.Save(ctx, apps.Place{Name: name, Address: address}); err != nil {
			return failure("save location", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Location '%s' at '%s' opened in Maps. You may need to manually save it to favorites.", name, address)), nil

	case "pin":
		if name == "" || address == "" {
			return mcp.NewToolResultError("Name and address are required for pin operation"), nil
		}
		if err := s.svc.Maps.Pin(ctx, apps.Place{Name: name, Address: address}); err != nil {
			return failure("drop pin", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Pin dropped for '%s' at '%s'", name, address)), nil

	case "directions":
		from := req.GetString("from_address", "")
		to := req.GetString("to_address", "")
		if from == "" || to == "" {
			return mcp.NewToolResultError("From and to addresses are required for directions operation"), nil
		}
		mode := req.GetString("transport_type", apps.TransportDriving)
		if err := s.svc.Maps.Directions(ctx, apps.Route{From: from, To: to, Transport: mode}); err != nil {
			return failure("get directions", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Directions requested from '%s' to '%s' using %s mode. Check Maps app for route details.", from, to, mode)), nil

	case "listGuides":
		return failure("list guides", s.svc.Maps.ListGuides(ctx)), nil

	case "createGuide":
		if guide == "" {
			return mcp.NewToolResultError("Guide name is required for createGuide operation"), nil
		}
		return failure("create guide", s.svc.Maps.CreateGuide(ctx, guide)), nil

	case "addToGuide":
		if address == "" || guide == "" {
			return mcp.NewToolResultError("Address and guide name are required for addToGuide operation"), nil
		}
		return failure("add to guide", s.svc.Maps.AddToGuide(ctx, address, guide)), nil
	}
	return unknownOperation(op, mapsOperations...), nil
}
