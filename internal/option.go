package internal

import (
	"io"

	"github.com/starford/applebridge/internal/osascript"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	configPath string
	executor   osascript.Executor
	stdin      io.Reader
	stdout     io.Writer
	logOutput  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigPath enables live reload of the log level from path.
func WithConfigPath(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}

// WithExecutor replaces the osascript runner.
func WithExecutor(exec osascript.Executor) Option {
	return func(a *application) {
		a.executor = exec
	}
}

// WithStdio sets the streams used by the stdio transport.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(a *application) {
		a.stdin = in
		a.stdout = out
	}
}

// WithLogOutput sets where logs are written. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}
