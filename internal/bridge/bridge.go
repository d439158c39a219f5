// Package bridge implements the operation shape shared by every application
// adapter: validate, check access, run the payload, then decode records or
// parse a Success:/Error: sentinel.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/applebridge/internal/apperr"
	"github.com/starford/applebridge/internal/osascript"
	"github.com/starford/applebridge/internal/record"
)

// SuccessPrefix starts the sentinel returned by mutating scripts.
const SuccessPrefix = "Success:"

// Bridge runs adapter payloads through an Executor.
type Bridge struct {
	exec    osascript.Executor
	codec   record.Codec
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithCodec overrides the record separators.
func WithCodec(c record.Codec) Option {
	return func(b *Bridge) { b.codec = c }
}

// WithTimeout sets the per-payload timeout passed to the Executor.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// WithLogger sets the logger used for failed operations.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// New creates a Bridge on top of exec.
func New(exec osascript.Executor, opts ...Option) *Bridge {
	b := &Bridge{
		exec:    exec,
		codec:   record.Default,
		timeout: osascript.DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Codec returns the separators scripts must use for list output.
func (b *Bridge) Codec() record.Codec {
	return b.codec
}

// Executor returns the underlying executor.
func (b *Bridge) Executor() osascript.Executor {
	return b.exec
}

// Query describes one listing operation.
type Query[T any] struct {
	App    string
	Script string
	// Fields is the fixed record width; 0 accepts any width >= 2.
	Fields int
	// Map converts a record into an entity; false drops the record.
	Map func(record.Record) (T, bool)
}

// List runs q and maps every decoded record.
func List[T any](ctx context.Context, b *Bridge, q Query[T]) ([]T, error) {
	out, err := b.Raw(ctx, q.App, q.Script)
	if err != nil {
		return nil, err
	}

	var records []record.Record
	if q.Fields > 0 {
		records, err = b.codec.DecodeN(out, q.Fields)
	} else {
		records, err = b.codec.Decode(out)
	}
	if err != nil {
		b.logger.Warn("script reported error",
			slog.String("app", q.App),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", apperr.ErrExecution, err)
	}

	items := make([]T, 0, len(records))
	for _, r := range records {
		if v, ok := q.Map(r); ok {
			items = append(items, v)
		}
	}
	return items, nil
}

// Exec runs a mutating script and returns the text after its Success: prefix.
func (b *Bridge) Exec(ctx context.Context, app, script string) (string, error) {
	out, err := b.Raw(ctx, app, script)
	if err != nil {
		return "", err
	}
	if msg, ok := strings.CutPrefix(out, SuccessPrefix); ok {
		return strings.TrimSpace(msg), nil
	}
	b.logger.Warn("unexpected script reply", slog.String("app", app), slog.String("output", out))
	return "", fmt.Errorf("%w: unexpected reply %q", apperr.ErrExecution, out)
}

// Raw checks access to app and runs script, returning its trimmed output.
// An output starting with the error prefix is returned as an execution error.
func (b *Bridge) Raw(ctx context.Context, app, script string) (string, error) {
	if !osascript.CheckAccess(ctx, b.exec, app) {
		b.logger.Warn("application not accessible", slog.String("app", app))
		return "", fmt.Errorf("%w: cannot access %s app", apperr.ErrAccessDenied, app)
	}

	res := b.exec.Run(ctx, script, b.timeout)
	if !res.Success {
		b.logger.Warn("script failed",
			slog.String("app", app),
			slog.String("run_id", res.RunID),
			slog.String("error", res.Error))
		return "", fmt.Errorf("%w: %s", apperr.ErrExecution, res.Error)
	}

	if strings.HasPrefix(res.Output, record.ErrorPrefix) {
		msg := strings.TrimSpace(strings.TrimPrefix(res.Output, record.ErrorPrefix))
		return "", fmt.Errorf("%w: %w", apperr.ErrExecution, &record.ScriptError{Message: msg})
	}
	return res.Output, nil
}

// Validate runs ozzo validation and tags failures with apperr.ErrValidation.
func Validate(v validation.Validatable) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	return nil
}

// Invalid tags err as a validation failure.
func Invalid(err error) error {
	return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
}

// Unsupported returns the fixed failure for operations the automation
// surface cannot perform.
func Unsupported(msg string) error {
	return fmt.Errorf("%w: %s", apperr.ErrUnsupported, msg)
}

// ScriptMessage extracts the message a script reported, if err carries one.
func ScriptMessage(err error) (string, bool) {
	var se *record.ScriptError
	if errors.As(err, &se) {
		return se.Message, true
	}
	return "", false
}
