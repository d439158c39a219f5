package apps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/applebridge/internal/apperr"
	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/models"
	"github.com/starford/applebridge/internal/record"
)

// Calendar defaults. Search looks a month ahead, List only the next day.
const (
	DefaultEventLimit   = 10
	MaxEventLimit       = 200
	SearchWindow        = 30 * 24 * time.Hour
	ListWindow          = 24 * time.Hour
	defaultCalendarExpr = "(first calendar whose writable is true)"
)

// Calendar searches, lists, creates and opens events in the Calendar app.
type Calendar struct {
	b   *bridge.Bridge
	now func() time.Time
}

// NewCalendar creates a Calendar adapter.
func NewCalendar(b *bridge.Bridge) *Calendar {
	return &Calendar{b: b, now: time.Now}
}

// EventQuery selects events overlapping [From, To]. Dates are ISO 8601;
// empty values default to today and today plus the operation's window.
type EventQuery struct {
	Text  string
	From  string
	To    string
	Limit int
}

// Search returns events in range whose title, location or notes contain q.Text.
func (c *Calendar) Search(ctx context.Context, q EventQuery) ([]models.Event, error) {
	if err := bridge.Validate(searchParam{Text: q.Text}); err != nil {
		return nil, err
	}
	cond := fmt.Sprintf("(eventTitle contains %[1]s) or (eventLocation contains %[1]s) or (eventNotes contains %[1]s)", bridge.Quote(q.Text))
	return c.events(ctx, q, SearchWindow, cond)
}

// List returns events in range.
func (c *Calendar) List(ctx context.Context, q EventQuery) ([]models.Event, error) {
	return c.events(ctx, q, ListWindow, "true")
}

func (c *Calendar) window(q EventQuery, span time.Duration) (time.Time, time.Time, error) {
	from := c.now()
	if q.From != "" {
		t, err := bridge.ParseTime(q.From)
		if err != nil {
			return time.Time{}, time.Time{}, bridge.Invalid(err)
		}
		from = t
	}
	to := from.Add(span)
	if q.To != "" {
		t, err := bridge.ParseTime(q.To)
		if err != nil {
			return time.Time{}, time.Time{}, bridge.Invalid(err)
		}
		to = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, bridge.Invalid(errors.New("to_date is before from_date"))
	}
	return bridge.StartOfDay(from), bridge.EndOfDay(to), nil
}

func (c *Calendar) events(ctx context.Context, q EventQuery, span time.Duration, cond string) ([]models.Event, error) {
	start, end, err := c.window(q, span)
	if err != nil {
		return nil, err
	}
	codec := c.b.Codec()
	fs := bridge.Quote(codec.FieldSep)
	body := fmt.Sprintf(`set out to {}
set eventLimit to %[1]d
repeat with aCalendar in calendars
if (count of out) >= eventLimit then exit repeat
set calendarEvents to (every event of aCalendar whose (start date <= rangeEnd) and (end date >= rangeStart))
repeat with anEvent in calendarEvents
if (count of out) >= eventLimit then exit repeat
set eventTitle to summary of anEvent
set eventLocation to ""
set eventNotes to ""
try
set eventLocation to location of anEvent
if eventLocation is missing value then set eventLocation to ""
end try
try
set eventNotes to description of anEvent
if eventNotes is missing value then set eventNotes to ""
end try
if %[2]s then
set end of out to (eventTitle & %[3]s & eventLocation & %[3]s & eventNotes & %[3]s & ((start date of anEvent) as string) & %[3]s & ((end date of anEvent) as string) & %[3]s & (name of aCalendar) & %[3]s & (uid of anEvent))
end if
end repeat
end repeat
%[4]s`, bridge.Limit(q.Limit, DefaultEventLimit, MaxEventLimit), cond, fs, bridge.ReturnJoined("out", codec.RecordSep))

	script := bridge.DateVar("rangeStart", start) + "\n" +
		bridge.DateVar("rangeEnd", end) + "\n" +
		bridge.Tell(AppCalendar, body)

	return bridge.List(ctx, c.b, bridge.Query[models.Event]{
		App:    AppCalendar,
		Script: script,
		Fields: 7,
		Map:    mapEvent,
	})
}

func mapEvent(r record.Record) (models.Event, bool) {
	loc := r[1]
	if loc == "" {
		loc = models.LocationUnset
	}
	return models.Event{
		Title:    r[0],
		Location: loc,
		Notes:    r[2],
		Start:    r[3],
		End:      r[4],
		Calendar: r[5],
		ID:       r[6],
	}, true
}

// NewEvent holds the parameters of Create. Start and End are ISO 8601.
type NewEvent struct {
	Title    string
	Start    string
	End      string
	Location string
	Notes    string
	AllDay   bool
	Calendar string
}

// Validate implements validation.Validatable.
func (e NewEvent) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Title, validation.Required.Error("title is required")),
		validation.Field(&e.Start, validation.Required.Error("start_date is required"), validation.By(isoDate)),
		validation.Field(&e.End, validation.Required.Error("end_date is required"), validation.By(isoDate)),
	)
}

func isoDate(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	_, err := bridge.ParseTime(s)
	return err
}

// Create makes an event in the named calendar, or the first writable one.
func (c *Calendar) Create(ctx context.Context, e NewEvent) error {
	if err := bridge.Validate(e); err != nil {
		return err
	}
	start, _ := bridge.ParseTime(e.Start)
	end, _ := bridge.ParseTime(e.End)
	if end.Before(start) {
		return bridge.Invalid(errors.New("end_date is before start_date"))
	}

	target := defaultCalendarExpr
	if e.Calendar != "" {
		target = "calendar " + bridge.Quote(e.Calendar)
	}

	var props strings.Builder
	if e.Location != "" {
		fmt.Fprintf(&props, "set location of newEvent to %s\n", bridge.Quote(e.Location))
	}
	if e.Notes != "" {
		fmt.Fprintf(&props, "set description of newEvent to %s\n", bridge.Quote(e.Notes))
	}
	fmt.Fprintf(&props, "set allday event of newEvent to %t", e.AllDay)

	body := fmt.Sprintf(`set targetCalendar to %s
set newEvent to make new event at end of events of targetCalendar with properties {summary:%s, start date:eventStart, end date:eventEnd}
%s
return "Success: Event created"`, target, bridge.Quote(e.Title), props.String())

	script := bridge.DateVar("eventStart", start) + "\n" +
		bridge.DateVar("eventEnd", end) + "\n" +
		bridge.Tell(AppCalendar, body)

	_, err := c.b.Exec(ctx, AppCalendar, script)
	return err
}

type idParam struct {
	ID string
}

func (p idParam) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required.Error("event id is required")),
	)
}

// Open shows the event with uid id and returns its title.
func (c *Calendar) Open(ctx context.Context, id string) (string, error) {
	if err := bridge.Validate(idParam{ID: id}); err != nil {
		return "", err
	}
	body := fmt.Sprintf(`activate
set eventUID to %s
repeat with aCalendar in calendars
set matches to (every event of aCalendar whose uid is eventUID)
if (count of matches) > 0 then
set foundEvent to item 1 of matches
show foundEvent
return "Success: " & (summary of foundEvent)
end if
end repeat
return "Error: No event found with ID: " & eventUID`, bridge.Quote(id))

	title, err := c.b.Exec(ctx, AppCalendar, bridge.Tell(AppCalendar, body))
	if msg, ok := bridge.ScriptMessage(err); ok && strings.HasPrefix(msg, "No event found") {
		return "", fmt.Errorf("%w: %s", apperr.ErrNotFound, msg)
	}
	return title, err
}
