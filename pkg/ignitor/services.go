package ignitor

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Container binding names the orchestrator resolves or binds.
const (
	HelpersService   = "Ignitor/Src/Helpers"
	EnvService       = "Ignitor/Src/Env"
	LoggerService    = "Ignitor/Src/Logger"
	ExceptionService = "Ignitor/Src/Exception"
	ServerService    = "Ignitor/Src/Server"
	SocketService    = "Ignitor/Src/Socket"
	MetricsService   = "Ignitor/Src/Metrics"
	AceService       = "Ignitor/Src/Ace"

	// HelpersAlias is the short name bound to HelpersService.
	HelpersAlias = "Helpers"
)

// HTTPServer is the HTTP front-end bound under ServerService.
type HTTPServer interface {
	Handler() http.Handler
	SetInstance(srv *http.Server)
	OnError(fn func(error))
	Listen(host, port string, onReady func()) error
	Close(ctx context.Context) error
}

// ServerFactory builds a custom *http.Server around the framework handler.
type ServerFactory func(handler http.Handler) *http.Server

// Commands is the command front-end bound under AceService.
type Commands interface {
	AddCommand(ref string) error
	Invoke(ctx context.Context, version string, args []string) error
}

type envReader interface {
	Get(key string, def ...string) string
}

type exceptionBinder interface {
	Bind(name, ref string)
}

type closer interface {
	Started() bool
	Close(ctx context.Context) error
}

type warner interface {
	Warn(ctx context.Context, msg string, fields ...zap.Field)
}
