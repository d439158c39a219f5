package osascript

import "time"

// Result holds the outcome of one script execution. Output is set only on
// success and Error only on failure; both are trimmed.
type Result struct {
	RunID    string
	Success  bool
	Output   string
	Error    string
	Duration time.Duration
}
