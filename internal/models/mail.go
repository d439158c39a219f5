package models

// Email is a message in Apple Mail. Content may be truncated.
type Email struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// Mailbox is a mailbox, optionally qualified by its account.
type Mailbox struct {
	Account string `json:"account,omitempty"`
	Name    string `json:"name"`
}

func (m Mailbox) String() string {
	if m.Account == "" {
		return m.Name
	}
	return m.Account + ": " + m.Name
}

// MailAccount is a configured Mail account.
type MailAccount struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}
