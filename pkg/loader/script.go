package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ignitor/pkg/hooks"
)

// ScriptSuffix is appended to module paths given without an extension.
const ScriptSuffix = ".js"

// DefaultScriptTimeout bounds the evaluation of a single top-level module.
const DefaultScriptTimeout = 5 * time.Second

// Script evaluates JavaScript modules with goja. Each Load gets a fresh
// runtime; modules pulled in with require share that runtime and are cached
// per Load.
type Script struct {
	timeout time.Duration
	logger  *zap.Logger
}

// ScriptOption configures a Script loader.
type ScriptOption func(*Script)

// WithTimeout bounds evaluation time. Zero disables the limit.
func WithTimeout(d time.Duration) ScriptOption {
	return func(s *Script) { s.timeout = d }
}

// WithConsole routes console.* output to logger.
func WithConsole(logger *zap.Logger) ScriptOption {
	return func(s *Script) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScript creates a script loader.
func NewScript(opts ...ScriptOption) *Script {
	s := &Script{
		timeout: DefaultScriptTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load evaluates the script at path and returns its module.exports.
func (s *Script) Load(ctx context.Context, path string, scope Scope) (any, error) {
	file, err := resolveScript(scope.AppRoot(), path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NotFound(path)
		}
		return nil, Failed(path, err)
	}

	vm := goja.New()
	id := ModuleID(scope.AppRoot(), file)
	r := &runtime{
		vm:     vm,
		id:     id,
		scope:  scope,
		logger: s.logger.With(zap.String("module", id)),
		cache:  make(map[string]goja.Value),
	}
	r.install()

	release := s.watch(ctx, vm)
	r.mu.Lock()
	exports, err := r.evaluate(file, src)
	r.reportRejections()
	r.mu.Unlock()
	release()
	if err != nil {
		return nil, Failed(path, err)
	}

	if exports == nil || goja.IsUndefined(exports) || goja.IsNull(exports) {
		return nil, nil
	}
	return exports.Export(), nil
}

// watch interrupts vm when the timeout elapses or ctx ends. The returned
// func stops watching and returns only once no interrupt can be pending, so
// hook callbacks that run on vm later start clean.
func (s *Script) watch(ctx context.Context, vm *goja.Runtime) func() {
	var expired <-chan time.Time
	var timer *time.Timer
	if s.timeout > 0 {
		timer = time.NewTimer(s.timeout)
		expired = timer.C
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-expired:
			vm.Interrupt("execution timeout")
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	return func() {
		close(done)
		<-exited
		if timer != nil {
			timer.Stop()
		}
		vm.ClearInterrupt()
	}
}

// resolveScript maps path to an existing file. Relative paths are taken from
// root and a missing extension tries ScriptSuffix first.
func resolveScript(root, path string) (string, error) {
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}

	candidates := []string{p}
	if filepath.Ext(p) == "" {
		candidates = []string{p + ScriptSuffix, p}
	}

	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", Failed(path, err)
		}
		if info.IsDir() {
			continue
		}
		return c, nil
	}
	return "", NotFound(path)
}

// runtime holds the state of one top-level Load.
type runtime struct {
	// mu serializes entry into the vm; hook callbacks run after Load returns.
	mu     sync.Mutex
	vm     *goja.Runtime
	id     string
	scope  Scope
	logger *zap.Logger
	cache  map[string]goja.Value

	// rejected holds promises rejected with no handler attached yet.
	rejected []*goja.Promise
}

func (r *runtime) install() {
	vm := r.vm
	vm.SetPromiseRejectionTracker(func(p *goja.Promise, op goja.PromiseRejectionOperation) {
		switch op {
		case goja.PromiseRejectionReject:
			r.rejected = append(r.rejected, p)
		case goja.PromiseRejectionHandle:
			r.rejected = slices.DeleteFunc(r.rejected, func(q *goja.Promise) bool { return q == p })
		}
	})

	_ = vm.Set("appRoot", r.scope.AppRoot())
	_ = vm.Set("use", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		v, err := r.scope.Use(name)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(v)
	})

	console := vm.NewObject()
	_ = console.Set("log", r.consoleFunc(r.logger.Info))
	_ = console.Set("info", r.consoleFunc(r.logger.Info))
	_ = console.Set("warn", r.consoleFunc(r.logger.Warn))
	_ = console.Set("error", r.consoleFunc(r.logger.Error))
	_ = vm.Set("console", console)

	h := r.scope.Hooks()
	obj := vm.NewObject()
	if h != nil {
		_ = obj.Set("before", r.registryObject(h.Before))
		_ = obj.Set("after", r.registryObject(h.After))
	}
	_ = vm.Set("hooks", obj)
}

// reportRejections hands every promise still unhandled at the end of a vm
// turn to the scope. Pending jobs have already run by then, so a handler
// attached later in the same turn counts.
func (r *runtime) reportRejections() {
	for _, p := range r.rejected {
		r.scope.Report(fmt.Errorf("%s: unhandled promise rejection: %s", r.id, p.Result()))
	}
	r.rejected = nil
}

func (r *runtime) consoleFunc(log func(string, ...zap.Field)) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		log(strings.Join(parts, " "))
		return goja.Undefined()
	}
}

// registryObject exposes reg as { register(event, fn), <event>(fn)... }.
func (r *runtime) registryObject(reg *hooks.Registry) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()

	register := func(event hooks.Event, fnValue goja.Value, this goja.Value) goja.Value {
		fn, ok := goja.AssertFunction(fnValue)
		if !ok {
			panic(vm.NewTypeError("hook callback for %s must be a function", event))
		}
		reg.Register(event, func() error {
			r.mu.Lock()
			defer r.mu.Unlock()
			_, err := fn(goja.Undefined())
			r.reportRejections()
			return err
		})
		return this
	}

	_ = obj.Set("register", func(call goja.FunctionCall) goja.Value {
		return register(hooks.Event(call.Argument(0).String()), call.Argument(1), call.This)
	})
	for _, ev := range hooks.Events() {
		_ = obj.Set(string(ev), func(call goja.FunctionCall) goja.Value {
			return register(ev, call.Argument(0), call.This)
		})
	}
	return obj
}

// evaluate runs src as a CommonJS-style module and returns module.exports.
func (r *runtime) evaluate(file string, src []byte) (goja.Value, error) {
	wrapped := "(function (module, exports, require, __filename, __dirname) {\n" + string(src) + "\n})"
	v, err := r.vm.RunScript(file, wrapped)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("module %s did not compile to a function", file)
	}

	module := r.vm.NewObject()
	exports := r.vm.NewObject()
	_ = module.Set("exports", exports)
	r.cache[file] = exports

	dir := filepath.Dir(file)
	if _, err := fn(goja.Undefined(), module, exports, r.vm.ToValue(r.require(dir)), r.vm.ToValue(file), r.vm.ToValue(dir)); err != nil {
		delete(r.cache, file)
		return nil, err
	}

	out := module.Get("exports")
	r.cache[file] = out
	return out, nil
}

// require resolves "./x" and "../x" against dir and everything else against
// the app root. A missing dependency throws inside the requiring module.
func (r *runtime) require(dir string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		id := call.Argument(0).String()
		base := r.scope.AppRoot()
		if strings.HasPrefix(id, "./") || strings.HasPrefix(id, "../") {
			base = dir
		}
		target := id
		if !filepath.IsAbs(target) {
			target = filepath.Join(base, id)
		}

		file, err := resolveScript("", target)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		if cached, ok := r.cache[file]; ok {
			return cached
		}
		src, err := os.ReadFile(file)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		exports, err := r.evaluate(file, src)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return exports
	}
}
