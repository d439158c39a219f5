//go:build unix

package osascript

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// shellRunner feeds payloads to sh on stdin, the same way osascript - reads them.
func shellRunner() *Runner {
	return &Runner{
		Interpreter: "sh",
		Args:        []string{"-s"},
		Timeout:     10 * time.Second,
		MaxOutput:   1 << 20,
	}
}

func TestRun_Success(t *testing.T) {
	res := shellRunner().Run(context.Background(), "echo '  hello  '", 0)
	if !res.Success {
		t.Fatalf("Success = false, error = %q", res.Error)
	}
	if res.Output != "hello" {
		t.Errorf("Output = %q, want trimmed %q", res.Output, "hello")
	}
	if res.Error != "" {
		t.Errorf("Error = %q, want empty", res.Error)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
}

func TestRun_NonZeroExitUsesStderr(t *testing.T) {
	res := shellRunner().Run(context.Background(), "echo partial; echo ' oops ' >&2; exit 3", 0)
	if res.Success {
		t.Fatal("Success = true, want false")
	}
	if res.Output != "" {
		t.Errorf("Output = %q, want empty on failure", res.Output)
	}
	if res.Error != "oops" {
		t.Errorf("Error = %q, want %q", res.Error, "oops")
	}
}

func TestRun_NonZeroExitWithoutStderr(t *testing.T) {
	res := shellRunner().Run(context.Background(), "exit 4", 0)
	if res.Success {
		t.Fatal("Success = true, want false")
	}
	if res.Error != "sh exited with status 4" {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestRun_InterpreterMissing(t *testing.T) {
	r := shellRunner()
	r.Interpreter = "nonexistent-interpreter-xyz-123"
	res := r.Run(context.Background(), "return 1", 0)
	if res.Success {
		t.Fatal("Success = true, want false")
	}
	if !strings.Contains(res.Error, "nonexistent-interpreter-xyz-123") {
		t.Errorf("Error = %q, want to mention the interpreter", res.Error)
	}
}

func TestRun_TimeoutKillsProcessGroup(t *testing.T) {
	const timeout = 300 * time.Millisecond
	start := time.Now()
	// The background sleep inherits stdout; only a group kill lets Run return promptly.
	res := shellRunner().Run(context.Background(), "sleep 30 & sleep 30", timeout)
	elapsed := time.Since(start)

	if res.Success {
		t.Fatal("Success = true, want false")
	}
	if res.Error != "execution timed out after 300ms" {
		t.Errorf("Error = %q", res.Error)
	}
	if elapsed > timeout+waitSlack+time.Second {
		t.Errorf("Run took %s, want about %s", elapsed, timeout)
	}
}

func TestRun_OutputCapped(t *testing.T) {
	r := shellRunner()
	r.MaxOutput = 16
	res := r.Run(context.Background(), "printf '%0100d' 0", 0)
	if !res.Success {
		t.Fatalf("Success = false, error = %q", res.Error)
	}
	if len(res.Output) != 16 {
		t.Errorf("len(Output) = %d, want 16", len(res.Output))
	}
}

func TestRun_DefaultTimeoutApplied(t *testing.T) {
	r := &Runner{}
	if r.timeout() != DefaultTimeout {
		t.Errorf("timeout() = %s, want %s", r.timeout(), DefaultTimeout)
	}
	if r.interpreter() != DefaultInterpreter {
		t.Errorf("interpreter() = %q", r.interpreter())
	}
}

func TestCheckAccess(t *testing.T) {
	ok := &Runner{Interpreter: "sh", Args: []string{"-c", "exit 0"}}
	if !CheckAccess(context.Background(), ok, "Notes") {
		t.Error("CheckAccess = false, want true")
	}
	denied := &Runner{Interpreter: "sh", Args: []string{"-c", "echo 'Not authorized to send Apple events' >&2; exit 1"}}
	if CheckAccess(context.Background(), denied, "Notes") {
		t.Error("CheckAccess = true, want false")
	}
}

func TestAccessScript(t *testing.T) {
	got := AccessScript(`Mail"; do shell script "x`)
	want := `tell application "Mail\"; do shell script \"x" to get name`
	if got != want {
		t.Errorf("AccessScript = %q, want %q", got, want)
	}
}
