package apps

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/models"
)

// Transport modes accepted by Directions.
const (
	TransportDriving = "driving"
	TransportWalking = "walking"
	TransportTransit = "transit"
)

var dirFlags = map[string]string{
	TransportDriving: "d",
	TransportWalking: "w",
	TransportTransit: "r",
}

// Maps drives Apple Maps through maps:// URLs.
type Maps struct {
	b *bridge.Bridge
}

// NewMaps creates a Maps adapter.
func NewMaps(b *bridge.Bridge) *Maps {
	return &Maps{b: b}
}

// Search opens query in Maps. The scripting surface does not expose
// results, so the returned location only echoes the query.
func (m *Maps) Search(ctx context.Context, query string) ([]models.Location, error) {
	if err := bridge.Validate(searchParam{Text: query}); err != nil {
		return nil, err
	}
	if err := m.open(ctx, url.Values{"q": {query}}); err != nil {
		return nil, err
	}
	return []models.Location{{Name: query}}, nil
}

// Place names a location.
type Place struct {
	Name    string
	Address string
}

// Validate implements validation.Validatable.
func (p Place) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required.Error("name is required")),
		validation.Field(&p.Address, validation.Required.Error("address is required")),
	)
}

// Save opens the address so it can be added to favourites by hand.
func (m *Maps) Save(ctx context.Context, p Place) error {
	if err := bridge.Validate(p); err != nil {
		return err
	}
	return m.open(ctx, url.Values{"q": {p.Address}})
}

// Pin drops a pin labelled with the place name at its address.
func (m *Maps) Pin(ctx context.Context, p Place) error {
	if err := bridge.Validate(p); err != nil {
		return err
	}
	return m.open(ctx, url.Values{"q": {p.Name}, "address": {p.Address}})
}

// Route holds the parameters of Directions.
type Route struct {
	From      string
	To        string
	Transport string
}

// Validate implements validation.Validatable.
func (r Route) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required.Error("from address is required")),
		validation.Field(&r.To, validation.Required.Error("to address is required")),
		validation.Field(&r.Transport, validation.In(TransportDriving, TransportWalking, TransportTransit)),
	)
}

// Directions opens a route between two addresses. An empty transport means driving.
func (m *Maps) Directions(ctx context.Context, r Route) error {
	if r.Transport == "" {
		r.Transport = TransportDriving
	}
	if err := bridge.Validate(r); err != nil {
		return err
	}
	return m.open(ctx, url.Values{
		"saddr":  {r.From},
		"daddr":  {r.To},
		"dirflg": {dirFlags[r.Transport]},
	})
}

// ListGuides is not scriptable.
func (m *Maps) ListGuides(context.Context) error {
	return bridge.Unsupported("Guide listing is not available via AppleScript. Please check the Maps app directly for your guides.")
}

// CreateGuide is not scriptable.
func (m *Maps) CreateGuide(_ context.Context, name string) error {
	return bridge.Unsupported(fmt.Sprintf("Creating guides via AppleScript is not supported. Please create the guide '%s' manually in the Maps app.", name))
}

// AddToGuide is not scriptable.
func (m *Maps) AddToGuide(_ context.Context, address, guide string) error {
	return bridge.Unsupported(fmt.Sprintf("Adding locations to guides via AppleScript is not supported. Please add '%s' to the guide '%s' manually in the Maps app.", address, guide))
}

// URL builds the maps:// URL for params.
func URL(params url.Values) string {
	return "maps://?" + strings.ReplaceAll(params.Encode(), "+", "%20")
}

func (m *Maps) open(ctx context.Context, params url.Values) error {
	body := fmt.Sprintf(`activate
open location %s
return "Success: Maps opened"`, bridge.Quote(URL(params)))
	_, err := m.b.Exec(ctx, AppMaps, bridge.Tell(AppMaps, body))
	return err
}
