// Package osascript runs automation scripts through the macOS scripting
// interpreter with timeouts, output limits and process-group cleanup.
package osascript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults applied when the corresponding Runner field is zero.
const (
	DefaultInterpreter = "osascript"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxOutput   = 4 << 20

	// waitSlack bounds how long Run waits for pipes after the process group is killed.
	waitSlack = 2 * time.Second
)

// Executor runs one script payload and reports how it went.
type Executor interface {
	Run(ctx context.Context, script string, timeout time.Duration) Result
}

// Runner is the subprocess Executor. The payload is written to the
// interpreter's stdin so it never appears in the process list.
type Runner struct {
	Interpreter string
	Args        []string
	Timeout     time.Duration
	MaxOutput   int // bytes, per stream
	Logger      *slog.Logger
}

// NewRunner returns a Runner for osascript reading its script from stdin.
func NewRunner(timeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		Interpreter: DefaultInterpreter,
		Args:        []string{"-"},
		Timeout:     timeout,
		Logger:      logger,
	}
}

// Run executes script and blocks until the interpreter exits or timeout
// elapses. A timeout <= 0 uses the runner default. Run never returns an
// error; every failure is described by the Result.
func (r *Runner) Run(ctx context.Context, script string, timeout time.Duration) (res Result) {
	if timeout <= 0 {
		timeout = r.timeout()
	}
	interp := r.interpreter()
	res.RunID = uuid.New().String()
	started := time.Now()
	defer func() {
		res.Duration = time.Since(started)
		r.logger().Debug("script finished",
			slog.String("run_id", res.RunID),
			slog.Bool("success", res.Success),
			slog.Duration("duration", res.Duration))
	}()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, interp, r.args()...)
	cmd.Stdin = strings.NewReader(script)
	setProcessGroup(cmd)
	cmd.WaitDelay = waitSlack

	limit := r.maxOutput()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: limit}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: limit}

	err := cmd.Run()
	switch {
	case err == nil:
		res.Success = true
		res.Output = strings.TrimSpace(stdout.String())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Error = fmt.Sprintf("execution timed out after %s", timeout)
	case runCtx.Err() != nil:
		res.Error = fmt.Sprintf("execution cancelled: %v", runCtx.Err())
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Error = strings.TrimSpace(stderr.String())
			if res.Error == "" {
				res.Error = fmt.Sprintf("%s exited with status %d", interp, exitErr.ExitCode())
			}
		} else {
			res.Error = fmt.Sprintf("executing %s: %v", interp, err)
		}
	}
	return res
}

func (r *Runner) interpreter() string {
	if r.Interpreter == "" {
		return DefaultInterpreter
	}
	return r.Interpreter
}

func (r *Runner) args() []string {
	if r.Args == nil {
		return []string{"-"}
	}
	return r.Args
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Runner) maxOutput() int {
	if r.MaxOutput <= 0 {
		return DefaultMaxOutput
	}
	return r.MaxOutput
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		// Report all bytes as consumed to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
