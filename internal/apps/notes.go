package apps

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/models"
	"github.com/starford/applebridge/internal/record"
)

// Notes defaults.
const (
	DefaultNotesFolder = "Claude"
	DefaultNotesLimit  = 50
	MaxNotesLimit      = 500
)

// Notes searches, lists and creates notes in the Notes app.
type Notes struct {
	b             *bridge.Bridge
	defaultFolder string
}

// NewNotes creates a Notes adapter. An empty folder uses DefaultNotesFolder.
func NewNotes(b *bridge.Bridge, defaultFolder string) *Notes {
	if defaultFolder == "" {
		defaultFolder = DefaultNotesFolder
	}
	return &Notes{b: b, defaultFolder: defaultFolder}
}

// NewNote holds the parameters of Create.
type NewNote struct {
	Title  string
	Body   string
	Folder string
}

// Validate implements validation.Validatable.
func (n NewNote) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.Required.Error("title is required")),
		validation.Field(&n.Body, validation.Required.Error("body is required")),
	)
}

type searchParam struct {
	Text string
}

func (p searchParam) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Text, validation.Required.Error("search text is required")),
	)
}

// Search returns notes whose title or plain text contains text.
func (n *Notes) Search(ctx context.Context, text string, limit int) ([]models.Note, error) {
	if err := bridge.Validate(searchParam{Text: text}); err != nil {
		return nil, err
	}
	cond := fmt.Sprintf("(noteTitle contains %[1]s) or (noteText contains %[1]s)", bridge.Quote(text))
	return n.list(ctx, cond, bridge.Limit(limit, DefaultNotesLimit, MaxNotesLimit))
}

// List returns up to limit notes across all accounts and folders.
func (n *Notes) List(ctx context.Context, limit int) ([]models.Note, error) {
	return n.list(ctx, "true", bridge.Limit(limit, DefaultNotesLimit, MaxNotesLimit))
}

func (n *Notes) list(ctx context.Context, cond string, limit int) ([]models.Note, error) {
	codec := n.b.Codec()
	body := fmt.Sprintf(`set out to {}
set maxNotes to %[1]d
repeat with anAccount in accounts
repeat with aFolder in folders of anAccount
repeat with aNote in notes of aFolder
if (count of out) >= maxNotes then exit repeat
set noteTitle to name of aNote
set noteText to plaintext of aNote
if %[2]s then set end of out to (noteTitle & %[3]s & noteText)
end repeat
if (count of out) >= maxNotes then exit repeat
end repeat
if (count of out) >= maxNotes then exit repeat
end repeat
%[4]s`, limit, cond, bridge.Quote(codec.FieldSep), bridge.ReturnJoined("out", codec.RecordSep))

	return bridge.List(ctx, n.b, bridge.Query[models.Note]{
		App:    AppNotes,
		Script: bridge.Tell(AppNotes, body),
		Fields: 2,
		Map: func(r record.Record) (models.Note, bool) {
			return models.Note{Title: r[0], Content: r[1]}, true
		},
	})
}

// Create adds a note to folder in the first account, creating the folder
// when it does not exist. It returns the folder used.
func (n *Notes) Create(ctx context.Context, note NewNote) (string, error) {
	if err := bridge.Validate(note); err != nil {
		return "", err
	}
	folder := note.Folder
	if folder == "" {
		folder = n.defaultFolder
	}

	body := fmt.Sprintf(`set targetAccount to account 1
try
set targetFolder to folder %[1]s of targetAccount
on error
set targetFolder to make new folder with properties {name:%[1]s} at targetAccount
end try
make new note at targetFolder with properties {name:%[2]s, body:%[3]s}
return "Success: Note created"`, bridge.Quote(folder), bridge.Quote(note.Title), bridge.Quote(note.Body))

	if _, err := n.b.Exec(ctx, AppNotes, bridge.Tell(AppNotes, body)); err != nil {
		return "", err
	}
	return folder, nil
}
