package models

// LocationUnset is shown for events without a location.
const LocationUnset = "Not specified"

// Event is a Calendar event. Start and End are the application's own date text.
type Event struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
	Start    string `json:"start_date"`
	End      string `json:"end_date"`
	Calendar string `json:"calendar_name"`
	ID       string `json:"id"`
}

// Reminder is a Reminders item.
type Reminder struct {
	Name      string `json:"name"`
	List      string `json:"list"`
	Body      string `json:"body,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
	Completed bool   `json:"completed"`
	ID        string `json:"id"`
}

// ReminderList is a Reminders list.
type ReminderList struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}
