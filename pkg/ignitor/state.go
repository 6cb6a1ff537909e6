package ignitor

import "fmt"

// State is a point in the boot lifecycle. States only move forward.
type State int

const (
	Unconfigured State = iota
	ManifestLoaded
	AutoloadConfigured
	HelpersRegistered
	HooksFileMaybeLoaded
	ProvidersRegistered
	ProvidersBooted
	AliasesDefined
	ExceptionHandlerResolved
	CommandsRegistered
	Preloaded
	Running
	ShuttingDown
	Stopped
)

var stateNames = [...]string{
	Unconfigured:             "unconfigured",
	ManifestLoaded:           "manifestLoaded",
	AutoloadConfigured:       "autoloadConfigured",
	HelpersRegistered:        "helpersRegistered",
	HooksFileMaybeLoaded:     "hooksFileMaybeLoaded",
	ProvidersRegistered:      "providersRegistered",
	ProvidersBooted:          "providersBooted",
	AliasesDefined:           "aliasesDefined",
	ExceptionHandlerResolved: "exceptionHandlerResolved",
	CommandsRegistered:       "commandsRegistered",
	Preloaded:                "preloaded",
	Running:                  "running",
	ShuttingDown:             "shuttingDown",
	Stopped:                  "stopped",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}
