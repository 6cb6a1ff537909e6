// Package ignitor sequences the boot of an application.
//
// An Ignitor walks a fixed series of phases against an application root:
// the manifest is read, autoload namespaces and directory roles are bound,
// the optional start/hooks module is evaluated, providers are registered and
// booted, aliases are defined, an exception handler is resolved and the
// preload list is executed. Each provider and preload boundary is bracketed by
// before/after hook dispatch.
//
// After Fire, control is handed to a front-end: FireHTTPServer binds the
// HTTP server and blocks until shutdown, FireCommand runs a single command.
//
//	c := container.New()
//	providers.Register(c, providers.Deps{Logger: logger})
//	err := ignitor.New(c, ignitor.WithLogger(logger)).
//		AppRoot("/srv/app").
//		PreLoadOptional("start/jobs").
//		FireHTTPServer(ctx, nil)
package ignitor
