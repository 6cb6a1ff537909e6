package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug. Hook dispatch and module evaluation log here.
const TraceLevel = zapcore.DebugLevel - 1

// ParseLevel maps a level name to a zapcore.Level. Names are case-insensitive;
// "trace" and "warning" are accepted and an empty name means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "":
		return zapcore.InfoLevel, nil
	case "trace":
		return TraceLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	default:
		l, err := zapcore.ParseLevel(n)
		if err != nil {
			return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
		}
		return l, nil
	}
}
