package apps

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/models"
	"github.com/starford/applebridge/internal/record"
)

// Reminders defaults.
const (
	DefaultRemindersLimit = 50
	MaxRemindersLimit     = 500
)

// Reminders lists, searches, creates and opens reminders.
type Reminders struct {
	b *bridge.Bridge
}

// NewReminders creates a Reminders adapter.
func NewReminders(b *bridge.Bridge) *Reminders {
	return &Reminders{b: b}
}

// List returns up to limit incomplete reminders across all lists.
func (r *Reminders) List(ctx context.Context, limit int) ([]models.Reminder, error) {
	return r.collect(ctx, "lists", "completed is false", limit)
}

// Search returns incomplete reminders whose name or body contains text.
func (r *Reminders) Search(ctx context.Context, text string, limit int) ([]models.Reminder, error) {
	if err := bridge.Validate(searchParam{Text: text}); err != nil {
		return nil, err
	}
	filter := fmt.Sprintf("completed is false and ((name contains %[1]s) or (body contains %[1]s))", bridge.Quote(text))
	return r.collect(ctx, "lists", filter, limit)
}

type listIDParam struct {
	ListID string
}

func (p listIDParam) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ListID, validation.Required.Error("list id is required")),
	)
}

// ListByID returns every reminder, completed or not, of the list with id listID.
func (r *Reminders) ListByID(ctx context.Context, listID string, limit int) ([]models.Reminder, error) {
	if err := bridge.Validate(listIDParam{ListID: listID}); err != nil {
		return nil, err
	}
	return r.collect(ctx, fmt.Sprintf("{list id %s}", bridge.Quote(listID)), "", limit)
}

func (r *Reminders) collect(ctx context.Context, lists, filter string, limit int) ([]models.Reminder, error) {
	codec := r.b.Codec()
	fs := bridge.Quote(codec.FieldSep)
	selector := "reminders of aList"
	if filter != "" {
		selector = fmt.Sprintf("(reminders of aList whose %s)", filter)
	}
	body := fmt.Sprintf(`set out to {}
set maxItems to %[1]d
repeat with aList in %[2]s
if (count of out) >= maxItems then exit repeat
repeat with aReminder in %[3]s
if (count of out) >= maxItems then exit repeat
set rBody to ""
if body of aReminder is not missing value then set rBody to body of aReminder
set rDue to ""
if due date of aReminder is not missing value then set rDue to (due date of aReminder) as string
set end of out to ((name of aReminder) & %[4]s & (name of aList) & %[4]s & rBody & %[4]s & rDue & %[4]s & ((completed of aReminder) as string) & %[4]s & (id of aReminder))
end repeat
end repeat
%[5]s`, bridge.Limit(limit, DefaultRemindersLimit, MaxRemindersLimit), lists, selector, fs, bridge.ReturnJoined("out", codec.RecordSep))

	return bridge.List(ctx, r.b, bridge.Query[models.Reminder]{
		App:    AppReminders,
		Script: bridge.Tell(AppReminders, body),
		Fields: 6,
		Map:    mapReminder,
	})
}

func mapReminder(rec record.Record) (models.Reminder, bool) {
	return models.Reminder{
		Name:      rec[0],
		List:      rec[1],
		Body:      rec[2],
		DueDate:   rec[3],
		Completed: rec[4] == "true",
		ID:        rec[5],
	}, true
}

// Lists returns every reminder list with its id.
func (r *Reminders) Lists(ctx context.Context) ([]models.ReminderList, error) {
	codec := r.b.Codec()
	body := fmt.Sprintf(`set out to {}
repeat with aList in lists
set end of out to ((name of aList) & %s & (id of aList))
end repeat
%s`, bridge.Quote(codec.FieldSep), bridge.ReturnJoined("out", codec.RecordSep))

	return bridge.List(ctx, r.b, bridge.Query[models.ReminderList]{
		App:    AppReminders,
		Script: bridge.Tell(AppReminders, body),
		Fields: 2,
		Map: func(rec record.Record) (models.ReminderList, bool) {
			return models.ReminderList{Name: rec[0], ID: rec[1]}, true
		},
	})
}

// NewReminder holds the parameters of Create. Due is ISO 8601.
type NewReminder struct {
	Name  string
	List  string
	Notes string
	Due   string
}

// Validate implements validation.Validatable.
func (n NewReminder) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Name, validation.Required.Error("name is required")),
		validation.Field(&n.Due, validation.By(isoDate)),
	)
}

// Create adds a reminder to the named list, or the default list.
func (r *Reminders) Create(ctx context.Context, n NewReminder) error {
	if err := bridge.Validate(n); err != nil {
		return err
	}

	target := "default list"
	if n.List != "" {
		target = "list " + bridge.Quote(n.List)
	}
	props := "name:" + bridge.Quote(n.Name)
	if n.Notes != "" {
		props += ", body:" + bridge.Quote(n.Notes)
	}

	var script, due string
	if n.Due != "" {
		t, _ := bridge.ParseTime(n.Due)
		script = bridge.DateVar("dueDate", t) + "\n"
		due = "\nset due date of newReminder to dueDate"
	}
	body := fmt.Sprintf(`set targetList to %s
set newReminder to make new reminder at end of reminders of targetList with properties {%s}%s
return "Success: Reminder created"`, target, props, due)

	_, err := r.b.Exec(ctx, AppReminders, script+bridge.Tell(AppReminders, body))
	return err
}

// Open shows the first incomplete reminder whose name contains text and
// returns its name.
func (r *Reminders) Open(ctx context.Context, text string) (string, error) {
	if err := bridge.Validate(searchParam{Text: text}); err != nil {
		return "", err
	}
	body := fmt.Sprintf(`activate
repeat with aList in lists
set matches to (reminders of aList whose name contains %s and completed is false)
if (count of matches) > 0 then
set found to item 1 of matches
show found
return "Success: " & (name of found)
end if
end repeat
return "Error: No reminder found matching " & %s`, bridge.Quote(text), bridge.Quote(text))

	return r.b.Exec(ctx, AppReminders, bridge.Tell(AppReminders, body))
}
