// Package exception keeps the table of exception handler bindings and turns
// it into an HTTP error handler.
package exception

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// Wildcard binds a handler for every error.
	Wildcard = "*"

	// ProviderPrefix marks a reference to a provider-registered binding.
	ProviderPrefix = "@provider:"

	// DefaultHandler is the binding name of the built-in handler.
	DefaultHandler = "Ignitor/Exceptions/Handler"
)

// Handler handles an error raised while serving a request.
type Handler interface {
	Handle(err error, c echo.Context) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(err error, c echo.Context) error

// Handle calls f.
func (f HandlerFunc) Handle(err error, c echo.Context) error {
	return f(err, c)
}

// Exception maps error names to handler references.
type Exception struct {
	mu   sync.RWMutex
	refs map[string]string
}

// New creates an empty binding table.
func New() *Exception {
	return &Exception{refs: make(map[string]string)}
}

// Bind associates name (an error type name or Wildcard) with ref. Later
// binds replace earlier ones.
func (e *Exception) Bind(name, ref string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refs[name] = ref
}

// Handler returns the reference bound to name, falling back to Wildcard.
func (e *Exception) Handler(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if ref, ok := e.refs[name]; ok {
		return ref, true
	}
	ref, ok := e.refs[Wildcard]
	return ref, ok
}

// Names returns the bound names, sorted.
func (e *Exception) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.refs))
	for n := range e.refs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clear removes every binding.
func (e *Exception) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refs = make(map[string]string)
}

// ParseRef strips ProviderPrefix from ref and reports whether it was there.
func ParseRef(ref string) (name string, fromProvider bool) {
	if strings.HasPrefix(ref, ProviderPrefix) {
		return strings.TrimPrefix(ref, ProviderPrefix), true
	}
	return ref, false
}

// NameOf returns the name an error is bound under: its dynamic type.
func NameOf(err error) string {
	return fmt.Sprintf("%T", err)
}

// ErrorHandler returns an echo error handler that resolves the handler bound
// for each error through use. Unresolvable references and handlers that fail
// fall through to fallback.
func (e *Exception) ErrorHandler(use func(string) (any, error), fallback echo.HTTPErrorHandler, logger *zap.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ref, ok := e.Handler(NameOf(err))
		if !ok {
			fallback(err, c)
			return
		}

		name, _ := ParseRef(ref)
		v, uerr := use(name)
		if uerr != nil {
			logger.Warn("exception handler not resolvable", zap.String("ref", ref), zap.Error(uerr))
			fallback(err, c)
			return
		}
		h, ok := v.(Handler)
		if !ok {
			logger.Warn("exception handler has unsupported type", zap.String("ref", ref), zap.String("type", fmt.Sprintf("%T", v)))
			fallback(err, c)
			return
		}
		if herr := h.Handle(err, c); herr != nil {
			logger.Error("exception handler failed", zap.String("ref", ref), zap.Error(herr))
			if !c.Response().Committed {
				fallback(err, c)
			}
		}
	}
}

// ErrorResponse is the body written by the default handler.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Default is the built-in handler: a JSON body with the error message and
// the status carried by *echo.HTTPError, else 500.
type Default struct {
	Logger *zap.Logger
}

// Handle implements Handler.
func (d *Default) Handle(err error, c echo.Context) error {
	status := http.StatusInternalServerError
	msg := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if status >= http.StatusInternalServerError && d.Logger != nil {
		d.Logger.Error("request error", zap.Error(err), zap.String("uri", c.Request().RequestURI))
	}

	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.JSON(status, ErrorResponse{Error: msg})
}
