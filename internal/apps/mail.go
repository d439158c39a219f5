package apps

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/models"
	"github.com/starford/applebridge/internal/record"
)

// Mail defaults.
const (
	DefaultMailLimit  = 10
	MaxMailLimit      = 100
	MailContentLength = 200
)

// Mail reads, searches and sends email through the Mail app.
type Mail struct {
	b *bridge.Bridge
}

// NewMail creates a Mail adapter.
func NewMail(b *bridge.Bridge) *Mail {
	return &Mail{b: b}
}

// MailQuery scopes a mailbox read. Empty fields mean "all" or "inbox".
type MailQuery struct {
	Account string
	Mailbox string
	Limit   int
}

// Unread returns unread messages from the selected mailbox, the account
// inbox, or the unified inbox.
func (m *Mail) Unread(ctx context.Context, q MailQuery) ([]models.Email, error) {
	var target string
	switch {
	case q.Account != "" && q.Mailbox != "":
		target = fmt.Sprintf("mailbox %s of account %s", bridge.Quote(q.Mailbox), bridge.Quote(q.Account))
	case q.Account != "":
		target = fmt.Sprintf("mailbox \"INBOX\" of account %s", bridge.Quote(q.Account))
	case q.Mailbox != "":
		target = fmt.Sprintf("mailbox %s", bridge.Quote(q.Mailbox))
	default:
		target = "inbox"
	}
	body := fmt.Sprintf(`set candidates to (every message of %s whose read status is false)`, target)
	return m.collect(ctx, body, q.Limit)
}

type termParam struct {
	Term string
}

func (p termParam) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Term, validation.Required.Error("search term is required")),
	)
}

// Search returns messages whose subject or content contains term.
func (m *Mail) Search(ctx context.Context, term string, q MailQuery) ([]models.Email, error) {
	if err := bridge.Validate(termParam{Term: term}); err != nil {
		return nil, err
	}
	match := fmt.Sprintf("whose (subject contains %[1]s) or (content contains %[1]s)", bridge.Quote(term))

	var body string
	switch {
	case q.Account != "" && q.Mailbox != "":
		body = fmt.Sprintf(`set candidates to (every message of mailbox %s of account %s %s)`,
			bridge.Quote(q.Mailbox), bridge.Quote(q.Account), match)
	case q.Account != "":
		body = fmt.Sprintf(`set candidates to {}
repeat with aMailbox in mailboxes of account %s
set candidates to candidates & (every message of aMailbox %s)
end repeat`, bridge.Quote(q.Account), match)
	default:
		body = fmt.Sprintf(`set candidates to {}
repeat with anAccount in accounts
repeat with aMailbox in mailboxes of anAccount
set candidates to candidates & (every message of aMailbox %s)
end repeat
end repeat`, match)
	}
	return m.collect(ctx, body, q.Limit)
}

// collect renders the messages selected into candidates by selectBody.
func (m *Mail) collect(ctx context.Context, selectBody string, limit int) ([]models.Email, error) {
	codec := m.b.Codec()
	fs := bridge.Quote(codec.FieldSep)
	body := fmt.Sprintf(`%[1]s
set out to {}
set emailLimit to %[2]d
repeat with aMessage in candidates
if (count of out) >= emailLimit then exit repeat
set end of out to ((sender of aMessage) & %[3]s & (subject of aMessage) & %[3]s & ((date received of aMessage) as string) & %[3]s & (content of aMessage))
end repeat
%[4]s`, selectBody, bridge.Limit(limit, DefaultMailLimit, MaxMailLimit), fs, bridge.ReturnJoined("out", codec.RecordSep))

	return bridge.List(ctx, m.b, bridge.Query[models.Email]{
		App:    AppMail,
		Script: bridge.Tell(AppMail, body),
		Fields: 4,
		Map: func(r record.Record) (models.Email, bool) {
			return models.Email{
				Sender:  r[0],
				Subject: r[1],
				Date:    r[2],
				Content: bridge.Truncate(strings.TrimSpace(r[3]), MailContentLength),
			}, true
		},
	})
}

// OutgoingEmail holds the parameters of Send.
type OutgoingEmail struct {
	To      string
	Subject string
	Body    string
	CC      string
	BCC     string
}

// Validate implements validation.Validatable.
func (e OutgoingEmail) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.To, validation.Required.Error("recipient is required"), validation.By(mailAddress)),
		validation.Field(&e.Subject, validation.Required.Error("subject is required")),
		validation.Field(&e.Body, validation.Required.Error("body is required")),
		validation.Field(&e.CC, validation.By(mailAddress)),
		validation.Field(&e.BCC, validation.By(mailAddress)),
	)
}

// mailAddress accepts a bare address or one with a display name, such as
// "Jane <jane@example.com>".
func mailAddress(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return errors.New("must be a valid email address")
	}
	return nil
}

// recipientProperties renders the AppleScript property record for a
// validated recipient.
func recipientProperties(raw string) string {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return fmt.Sprintf("{address:%s}", bridge.Quote(raw))
	}
	if addr.Name == "" {
		return fmt.Sprintf("{address:%s}", bridge.Quote(addr.Address))
	}
	return fmt.Sprintf("{name:%s, address:%s}", bridge.Quote(addr.Name), bridge.Quote(addr.Address))
}

// Send composes and sends a message.
func (m *Mail) Send(ctx context.Context, e OutgoingEmail) error {
	if err := bridge.Validate(e); err != nil {
		return err
	}

	var recipients strings.Builder
	fmt.Fprintf(&recipients, "make new to recipient at end of to recipients with properties %s", recipientProperties(e.To))
	if e.CC != "" {
		fmt.Fprintf(&recipients, "\nmake new cc recipient at end of cc recipients with properties %s", recipientProperties(e.CC))
	}
	if e.BCC != "" {
		fmt.Fprintf(&recipients, "\nmake new bcc recipient at end of bcc recipients with properties %s", recipientProperties(e.BCC))
	}

	body := fmt.Sprintf(`set newMessage to make new outgoing message with properties {subject:%s, content:%s, visible:false}
tell newMessage
%s
end tell
send newMessage
return "Success: Email sent"`, bridge.Quote(e.Subject), bridge.Quote(e.Body), recipients.String())

	_, err := m.b.Exec(ctx, AppMail, bridge.Tell(AppMail, body))
	return err
}

// Mailboxes lists the mailboxes of account, or of every account.
func (m *Mail) Mailboxes(ctx context.Context, account string) ([]models.Mailbox, error) {
	codec := m.b.Codec()
	accounts := "accounts"
	if account != "" {
		accounts = fmt.Sprintf("{account %s}", bridge.Quote(account))
	}
	body := fmt.Sprintf(`set out to {}
repeat with anAccount in %s
repeat with aMailbox in mailboxes of anAccount
set end of out to ((name of anAccount) & %s & (name of aMailbox))
end repeat
end repeat
%s`, accounts, bridge.Quote(codec.FieldSep), bridge.ReturnJoined("out", codec.RecordSep))

	return bridge.List(ctx, m.b, bridge.Query[models.Mailbox]{
		App:    AppMail,
		Script: bridge.Tell(AppMail, body),
		Fields: 2,
		Map: func(r record.Record) (models.Mailbox, bool) {
			mb := models.Mailbox{Account: r[0], Name: r[1]}
			if account != "" {
				mb.Account = ""
			}
			return mb, true
		},
	})
}

// Accounts lists configured accounts with their type.
func (m *Mail) Accounts(ctx context.Context) ([]models.MailAccount, error) {
	codec := m.b.Codec()
	body := fmt.Sprintf(`set out to {}
repeat with anAccount in accounts
set end of out to ((name of anAccount) & %s & ((account type of anAccount) as string))
end repeat
%s`, bridge.Quote(codec.FieldSep), bridge.ReturnJoined("out", codec.RecordSep))

	return bridge.List(ctx, m.b, bridge.Query[models.MailAccount]{
		App:    AppMail,
		Script: bridge.Tell(AppMail, body),
		Fields: 2,
		Map: func(r record.Record) (models.MailAccount, bool) {
			return models.MailAccount{Name: r[0], Type: r[1]}, true
		},
	})
}
