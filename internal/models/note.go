// Package models defines the entities decoded from application scripts.
// They are built per call and never persisted; the owning application
// remains the source of truth.
package models

// Note is an Apple Notes entry.
type Note struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Contact is a person with at least one phone number.
type Contact struct {
	Name   string   `json:"name"`
	Phones []string `json:"phones"`
}
