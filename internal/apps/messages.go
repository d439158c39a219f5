package apps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/applebridge/internal/apperr"
	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/models"
	"github.com/starford/applebridge/internal/record"
)

// Messages defaults.
const (
	DefaultMessagesLimit = 10
	MaxMessagesLimit     = 200

	scheduleUnsupported = "Message scheduling is not natively supported by Apple Messages. Consider using a third-party automation tool."
	historyUnsupported  = "Message history is not available: configure messages.chat_db and grant Full Disk Access."
)

// History reads past conversations outside the scripting bridge.
type History interface {
	Conversations(ctx context.Context, limit int) ([]models.Conversation, error)
	Search(ctx context.Context, query string, limit int) ([]models.Message, error)
}

// Messages sends and reads iMessages.
type Messages struct {
	b       *bridge.Bridge
	history History
}

// NewMessages creates a Messages adapter. history may be nil.
func NewMessages(b *bridge.Bridge, history History) *Messages {
	return &Messages{b: b, history: history}
}

// Outgoing holds the parameters of Send.
type Outgoing struct {
	To   string
	Body string
}

// Validate implements validation.Validatable.
func (o Outgoing) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.To, validation.Required.Error("phone number is required")),
		validation.Field(&o.Body, validation.Required.Error("message is required")),
	)
}

// Send delivers body to the iMessage participant to.
func (m *Messages) Send(ctx context.Context, msg Outgoing) error {
	if err := bridge.Validate(msg); err != nil {
		return err
	}
	body := fmt.Sprintf(`set targetService to 1st account whose service type = iMessage
set targetBuddy to participant %s of targetService
send %s to targetBuddy
return "Success: Message sent"`, bridge.Quote(msg.To), bridge.Quote(msg.Body))

	_, err := m.b.Exec(ctx, AppMessages, bridge.Tell(AppMessages, body))
	return err
}

type recipientParam struct {
	To string
}

func (p recipientParam) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.To, validation.Required.Error("phone number is required")),
	)
}

// Read returns up to limit recent messages from the chat whose participant
// id contains to.
func (m *Messages) Read(ctx context.Context, to string, limit int) ([]models.Message, error) {
	if err := bridge.Validate(recipientParam{To: to}); err != nil {
		return nil, err
	}
	codec := m.b.Codec()
	fs := bridge.Quote(codec.FieldSep)
	body := fmt.Sprintf(`set out to {}
set targetNumber to %[1]s
set messageLimit to %[2]d
set targetChat to missing value
repeat with aChat in chats
repeat with aBuddy in participants of aChat
if id of aBuddy contains targetNumber then
set targetChat to aChat
exit repeat
end if
end repeat
if targetChat is not missing value then exit repeat
end repeat
if targetChat is not missing value then
repeat with aMessage in texts of targetChat
if (count of out) >= messageLimit then exit repeat
set end of out to ((handle of sender of aMessage) & %[3]s & (text of aMessage) & %[3]s & ((time sent of aMessage) as string))
end repeat
end if
%[4]s`, bridge.Quote(to), bridge.Limit(limit, DefaultMessagesLimit, MaxMessagesLimit), fs, bridge.ReturnJoined("out", codec.RecordSep))

	return bridge.List(ctx, m.b, bridge.Query[models.Message]{
		App:    AppMessages,
		Script: bridge.Tell(AppMessages, body),
		Fields: 3,
		Map: func(r record.Record) (models.Message, bool) {
			return models.Message{Sender: r[0], Content: r[1], Time: r[2]}, true
		},
	})
}

// Schedule is not offered by Messages and always fails with apperr.ErrUnsupported.
func (m *Messages) Schedule(_ context.Context, _ Outgoing, _ string) error {
	return bridge.Unsupported(scheduleUnsupported)
}

// UnreadCount sums the unread count of every chat.
func (m *Messages) UnreadCount(ctx context.Context) (int, error) {
	body := `set unreadTotal to 0
repeat with aChat in chats
set unreadTotal to unreadTotal + (unread count of aChat)
end repeat
return unreadTotal as string`

	out, err := m.b.Raw(ctx, AppMessages, bridge.Tell(AppMessages, body))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid unread count %q", apperr.ErrExecution, out)
	}
	return n, nil
}

// Conversations lists recent chats from the history database.
func (m *Messages) Conversations(ctx context.Context, limit int) ([]models.Conversation, error) {
	if m.history == nil {
		return nil, bridge.Unsupported(historyUnsupported)
	}
	return m.history.Conversations(ctx, bridge.Limit(limit, DefaultMessagesLimit, MaxMessagesLimit))
}

// SearchHistory finds past messages containing query.
func (m *Messages) SearchHistory(ctx context.Context, query string, limit int) ([]models.Message, error) {
	if err := bridge.Validate(searchParam{Text: query}); err != nil {
		return nil, err
	}
	if m.history == nil {
		return nil, bridge.Unsupported(historyUnsupported)
	}
	return m.history.Search(ctx, query, bridge.Limit(limit, DefaultMessagesLimit, MaxMessagesLimit))
}
