// Package testutil provides a scripted Executor for adapter and server tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/starford/applebridge/internal/osascript"
)

// Call records one script submitted to a FakeExecutor.
type Call struct {
	Script  string
	Timeout time.Duration
}

// FakeExecutor answers access checks and scripts without spawning processes.
type FakeExecutor struct {
	mu sync.Mutex

	// Denied lists applications whose access check fails.
	Denied map[string]bool
	// Reply answers every non-access-check script; nil means succeed with Output.
	Reply  func(script string) osascript.Result
	Output string

	checks []string
	calls  []Call
}

// NewFakeExecutor returns an executor that grants access to every app and
// replies to scripts with output.
func NewFakeExecutor(output string) *FakeExecutor {
	return &FakeExecutor{Output: output, Denied: map[string]bool{}}
}

// Deny makes the access check fail for app.
func (f *FakeExecutor) Deny(app string) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Denied == nil {
		f.Denied = map[string]bool{}
	}
	f.Denied[app] = true
	return f
}

// Run implements osascript.Executor.
func (f *FakeExecutor) Run(_ context.Context, script string, timeout time.Duration) osascript.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	for app := range f.Denied {
		if script == osascript.AccessScript(app) {
			f.checks = append(f.checks, app)
			return osascript.Result{RunID: "access", Error: "Not authorized to send Apple events to " + app + "."}
		}
	}
	if strings.HasPrefix(script, "tell application ") && strings.HasSuffix(script, " to get name") {
		f.checks = append(f.checks, script)
		return osascript.Result{RunID: "access", Success: true, Output: "ok"}
	}

	f.calls = append(f.calls, Call{Script: script, Timeout: timeout})
	if f.Reply != nil {
		return f.Reply(script)
	}
	return osascript.Result{RunID: "fake", Success: true, Output: f.Output}
}

// Calls returns the non-access-check scripts run so far.
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// LastScript returns the most recent non-access-check script, or "".
func (f *FakeExecutor) LastScript() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1].Script
}

// AccessChecks returns how many access checks were run.
func (f *FakeExecutor) AccessChecks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checks)
}
