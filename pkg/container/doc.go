// Package container provides the provider container the orchestrator drives.
//
// It keeps named bindings (plain factories, lazy singletons and instances),
// alias chains, autoloaded namespaces, directory roles, and the provider
// registrar. Providers are registered synchronously in declaration order and
// booted concurrently; Boot returns once every provider has finished.
//
// Example:
//
//	c := container.New()
//	c.RegisterProviderFactory("App/Providers/Db", func() container.Provider { return &DbProvider{} })
//	if err := c.RegisterProviders([]string{"App/Providers/Db"}); err != nil {
//	    return err
//	}
//	if err := c.Boot(ctx); err != nil {
//	    return err
//	}
//	db, err := container.Make[*sql.DB](c, "Db")
package container
