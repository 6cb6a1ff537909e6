package logging

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output encodings.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config controls how NewLogger builds its core.
type Config struct {
	Level  zapcore.Level
	Format string

	// Caller adds the call site. Logger's methods sit two frames above zap,
	// so CallerSkip defaults to 2.
	Caller     bool
	CallerSkip int

	// StacktraceLevel is the lowest level that carries a stacktrace.
	StacktraceLevel zapcore.Level

	// Fields are attached to every entry.
	Fields map[string]string
}

// NewDefaultConfig returns JSON output at info level tagged with the
// service name.
func NewDefaultConfig() *Config {
	return &Config{
		Level:           zapcore.InfoLevel,
		Format:          FormatJSON,
		Caller:          true,
		CallerSkip:      2,
		StacktraceLevel: zapcore.ErrorLevel,
		Fields:          map[string]string{"service": "ignitor"},
	}
}

// FromSettings builds a Config from the level and format strings of the
// runtime configuration. An empty format keeps JSON.
func FromSettings(level, format string) (*Config, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid level %q: %w", level, err)
	}
	cfg := NewDefaultConfig()
	cfg.Level = l
	if format != "" {
		cfg.Format = format
	}
	return cfg, cfg.Validate()
}

// Validate checks the format, caller skip and static fields.
func (c *Config) Validate() error {
	var errs []error
	if c.Format != FormatJSON && c.Format != FormatConsole {
		errs = append(errs, fmt.Errorf("format must be %s or %s, got %q", FormatJSON, FormatConsole, c.Format))
	}
	if c.CallerSkip < 0 {
		errs = append(errs, fmt.Errorf("caller skip must be >= 0, got %d", c.CallerSkip))
	}
	for k, v := range c.Fields {
		if k == "" || v == "" {
			errs = append(errs, fmt.Errorf("field %q: key and value must be non-empty", k))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) options() []zap.Option {
	opts := []zap.Option{zap.AddStacktrace(c.StacktraceLevel)}
	if c.Caller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(c.CallerSkip))
	}
	return opts
}
