package bridge

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, Quote("plain"))
	assert.Equal(t, `"say \"hi\""`, Quote(`say "hi"`))
	assert.Equal(t, `"C:\\dir\\\""`, Quote(`C:\dir\"`))
}

func TestDateVar(t *testing.T) {
	ts := time.Date(2025, time.March, 31, 14, 30, 5, 0, time.Local)
	got := DateVar("startDate", ts)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "set startDate to current date", lines[0])
	assert.Equal(t, "set day of startDate to 1", lines[1])
	assert.Equal(t, "set year of startDate to 2025", lines[2])
	assert.Equal(t, "set month of startDate to 3", lines[3])
	assert.Equal(t, "set day of startDate to 31", lines[4])
	assert.Equal(t, "set time of startDate to 52205", lines[5])
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{"2025-01-31", "2025-01-31T09:00", "2025-01-31T09:00:00", "2025-01-31T09:00:00Z", "2025-01-31 09:00"} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2025, got.Year(), in)
	}
	_, err := ParseTime("31/01/2025")
	assert.Error(t, err)
}

func TestEndOfDay(t *testing.T) {
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)
	end := EndOfDay(ts)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Second())
	assert.Equal(t, 1, end.Day())
}

func TestEndOfDay_DaylightSavingTransitions(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	saved := time.Local
	time.Local = ny
	t.Cleanup(func() { time.Local = saved })

	for _, day := range []time.Time{
		time.Date(2025, time.November, 2, 12, 0, 0, 0, ny), // 25-hour day
		time.Date(2025, time.March, 9, 12, 0, 0, 0, ny),    // 23-hour day
	} {
		end := EndOfDay(day)
		y, m, d := end.Date()
		assert.Equal(t, []int{day.Year(), int(day.Month()), day.Day()}, []int{y, int(m), d}, "day of %s", day)
		assert.Equal(t, []int{23, 59, 59}, []int{end.Hour(), end.Minute(), end.Second()}, "clock of %s", day)
		assert.Equal(t, time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, ny), end.Add(time.Second))
	}
}

func TestLimit(t *testing.T) {
	assert.Equal(t, 10, Limit(0, 10, 100))
	assert.Equal(t, 5, Limit(5, 10, 100))
	assert.Equal(t, 100, Limit(500, 10, 100))
	assert.Equal(t, 500, Limit(500, 10, 0))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "héé...", Truncate("hééllo", 3))
}

func TestTell(t *testing.T) {
	got := Tell("Notes", "return 1")
	assert.True(t, strings.HasPrefix(got, `tell application "Notes"`))
	assert.Contains(t, got, "return 1")
	assert.Contains(t, got, `return "Error: " & errMsg`)
	assert.True(t, strings.HasSuffix(got, "end tell"))
}

func TestReturnJoined(t *testing.T) {
	got := ReturnJoined("out", ";")
	assert.Contains(t, got, `set AppleScript's text item delimiters to ";"`)
	assert.Contains(t, got, "set joinedResult to out as string")
}
