package bridge

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Escape makes s safe inside an AppleScript string literal. Only the
// backslash and the double quote are special there.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// Quote returns s as an AppleScript string literal.
func Quote(s string) string {
	return `"` + Escape(s) + `"`
}

// DateVar returns statements assigning t to the AppleScript variable name.
// Components are set one by one so the result does not depend on the
// user's locale date format.
func DateVar(name string, t time.Time) string {
	t = t.In(time.Local)
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return fmt.Sprintf(`set %[1]s to current date
set day of %[1]s to 1
set year of %[1]s to %[2]d
set month of %[1]s to %[3]d
set day of %[1]s to %[4]d
set time of %[1]s to %[5]d`, name, t.Year(), int(t.Month()), t.Day(), secs)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseTime accepts ISO 8601 date or date-time strings. Values without an
// offset are read in local time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use ISO format like 2025-01-31 or 2025-01-31T09:00:00", s)
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// EndOfDay returns the last second of t's local calendar day, which is not
// StartOfDay+24h on daylight saving transitions.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.Local)
}

// Limit clamps n into [1, max], using def when n <= 0.
func Limit(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if max > 0 && n > max {
		n = max
	}
	return n
}

// Truncate shortens s to n runes and appends "..." when it was longer.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

// Tell wraps body in a tell block for app. Runtime errors inside body are
// trapped and returned as an Error: prefixed reply.
func Tell(app, body string) string {
	return fmt.Sprintf(`tell application %s
try
%s
on error errMsg
set AppleScript's text item delimiters to ""
return "Error: " & errMsg
end try
end tell`, Quote(app), body)
}

// ReturnJoined returns statements that join the list variable listVar with
// sep and return the result.
func ReturnJoined(listVar, sep string) string {
	return fmt.Sprintf(`set AppleScript's text item delimiters to %s
set joinedResult to %s as string
set AppleScript's text item delimiters to ""
return joinedResult`, Quote(sep), listVar)
}
