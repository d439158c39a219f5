package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/applebridge/internal/chatdb"
	"github.com/starford/applebridge/internal/osascript"
	"github.com/starford/applebridge/internal/record"
	"github.com/starford/applebridge/internal/websearch"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Runner   RunnerConfig      `yaml:"runner"`
	Codec    CodecConfig       `yaml:"codec"`
	Notes    NotesConfig       `yaml:"notes"`
	Messages MessagesConfig    `yaml:"messages"`
	Search   SearchConfig      `yaml:"search"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.Runner, &c.Codec, &c.Search, &c.Auth} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	Transport string     `yaml:"transport"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Transport, validation.In(TransportStdio, TransportHTTP)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// RunnerConfig controls how scripts are executed.
type RunnerConfig struct {
	Interpreter string        `yaml:"interpreter"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxOutput   int           `yaml:"max_output"`
}

// Validate validates the runner configuration.
func (c *RunnerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interpreter, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MaxOutput, validation.Min(0)),
	)
}

// CodecConfig holds the record separators scripts emit.
type CodecConfig struct {
	FieldSeparator  string `yaml:"field_separator"`
	RecordSeparator string `yaml:"record_separator"`
}

// Validate validates the codec configuration.
func (c *CodecConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.FieldSeparator, validation.Required),
		validation.Field(&c.RecordSeparator, validation.Required),
	); err != nil {
		return err
	}
	if c.FieldSeparator == c.RecordSeparator {
		return errors.New("codec: field and record separators must differ")
	}
	return nil
}

// Codec returns the configured record codec.
func (c *CodecConfig) Codec() record.Codec {
	return record.Codec{FieldSep: c.FieldSeparator, RecordSep: c.RecordSeparator}
}

// NotesConfig holds Notes defaults.
type NotesConfig struct {
	DefaultFolder string `yaml:"default_folder"`
}

// MessagesConfig points at the Messages history database. An empty path
// disables history operations.
type MessagesConfig struct {
	ChatDB string `yaml:"chat_db"`
}

// SearchConfig holds web search configuration.
type SearchConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	Locale        string        `yaml:"locale"`
	UserAgent     string        `yaml:"user_agent"`
	MaxResults    int           `yaml:"max_results"`
	PreviewLength int           `yaml:"preview_length"`
	Concurrency   int           `yaml:"concurrency"`
	SearchTimeout time.Duration `yaml:"search_timeout"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	MinInterval   time.Duration `yaml:"min_interval"`
	KeepUnfetched bool          `yaml:"keep_unfetched"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.MaxResults, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&c.PreviewLength, validation.Required, validation.Min(1)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1)),
		validation.Field(&c.SearchTimeout, validation.Required),
		validation.Field(&c.FetchTimeout, validation.Required),
		validation.Field(&c.MinInterval, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration for the HTTP transport.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			Transport: TransportStdio,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Runner: RunnerConfig{
			Interpreter: osascript.DefaultInterpreter,
			Timeout:     osascript.DefaultTimeout,
			MaxOutput:   osascript.DefaultMaxOutput,
		},
		Codec: CodecConfig{
			FieldSeparator:  record.Default.FieldSep,
			RecordSeparator: record.Default.RecordSep,
		},
		Notes: NotesConfig{
			DefaultFolder: "Claude",
		},
		Messages: MessagesConfig{
			ChatDB: chatdb.DefaultPath(),
		},
		Search: SearchConfig{
			Endpoint:      websearch.DefaultEndpoint,
			Locale:        websearch.DefaultLocale,
			UserAgent:     websearch.DefaultUserAgent,
			MaxResults:    websearch.DefaultMaxResults,
			PreviewLength: websearch.DefaultPreviewLength,
			Concurrency:   websearch.DefaultConcurrency,
			SearchTimeout: websearch.DefaultSearchTimeout,
			FetchTimeout:  websearch.DefaultFetchTimeout,
			MinInterval:   time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
