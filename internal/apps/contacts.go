// Package apps adapts macOS applications to typed operations. Each adapter
// builds a payload from validated parameters and runs it through a bridge.
package apps

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/models"
	"github.com/starford/applebridge/internal/record"
)

// Application names as addressed by the scripting bridge.
const (
	AppContacts  = "Contacts"
	AppNotes     = "Notes"
	AppMessages  = "Messages"
	AppMail      = "Mail"
	AppCalendar  = "Calendar"
	AppReminders = "Reminders"
	AppMaps      = "Maps"
)

// All lists every scriptable application the adapters address.
var All = []string{AppContacts, AppNotes, AppMessages, AppMail, AppCalendar, AppReminders, AppMaps}

// Contacts reads people and phone numbers from the Contacts app.
type Contacts struct {
	b *bridge.Bridge
}

// NewContacts creates a Contacts adapter.
func NewContacts(b *bridge.Bridge) *Contacts {
	return &Contacts{b: b}
}

type nameParam struct {
	Name string
}

func (p nameParam) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required.Error("name is required")),
	)
}

// Find returns people whose name contains name, with their phone numbers.
func (c *Contacts) Find(ctx context.Context, name string) ([]models.Contact, error) {
	if err := bridge.Validate(nameParam{Name: strings.TrimSpace(name)}); err != nil {
		return nil, err
	}
	filter := fmt.Sprintf("(every person whose name contains %s)", bridge.Quote(name))
	return c.list(ctx, filter)
}

// All returns every person that has at least one phone number.
func (c *Contacts) All(ctx context.Context) ([]models.Contact, error) {
	return c.list(ctx, "every person")
}

func (c *Contacts) list(ctx context.Context, people string) ([]models.Contact, error) {
	codec := c.b.Codec()
	body := fmt.Sprintf(`set out to {}
repeat with aPerson in %s
set phoneValues to value of every phone of aPerson
if (count of phoneValues) > 0 then
set fields to {name of aPerson} & phoneValues
set AppleScript's text item delimiters to %s
set end of out to (fields as string)
set AppleScript's text item delimiters to ""
end if
end repeat
%s`, people, bridge.Quote(codec.FieldSep), bridge.ReturnJoined("out", codec.RecordSep))

	return bridge.List(ctx, c.b, bridge.Query[models.Contact]{
		App:    AppContacts,
		Script: bridge.Tell(AppContacts, body),
		Map:    mapContact,
	})
}

func mapContact(r record.Record) (models.Contact, bool) {
	if len(r) < 2 || r[0] == "" {
		return models.Contact{}, false
	}
	return models.Contact{Name: r[0], Phones: append([]string(nil), r[1:]...)}, true
}
