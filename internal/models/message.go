package models

import "time"

// Message is one text in a Messages conversation. Time is the
// application's own rendering; Sent is set only for history reads.
type Message struct {
	Sender  string    `json:"sender"`
	Content string    `json:"content"`
	Time    string    `json:"time"`
	Sent    time.Time `json:"sent,omitzero"`
	ChatID  string    `json:"chat_id,omitempty"`
	FromMe  bool      `json:"from_me,omitempty"`
}

// Conversation summarises a chat from the Messages history database.
type Conversation struct {
	ChatID       string    `json:"chat_id"`
	DisplayName  string    `json:"display_name,omitempty"`
	MessageCount int       `json:"message_count"`
	LastMessage  time.Time `json:"last_message,omitzero"`
}

// Label returns the display name, falling back to the chat identifier.
func (c Conversation) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.ChatID
}
