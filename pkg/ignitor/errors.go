package ignitor

import "errors"

// ConfigError reports a misconfigured Ignitor detected before any phase runs.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return "ignitor: " + e.Field + ": " + e.Msg
}

// ErrNoAppRoot is returned by Fire when AppRoot was never set.
var ErrNoAppRoot error = &ConfigError{
	Field: "appRoot",
	Msg:   "make sure to define the application root by calling AppRoot",
}

// ErrNoCommands is returned by FireCommand when no command kernel is bound.
var ErrNoCommands = errors.New("ignitor: no command kernel bound")
