// Package container provides the IoC container and the bootstrappable
// contexts built on it.
//
// # Container
//
// Container is a registry of factories and instances keyed by string.
// Auto-wiring is replaced by explicit factory functions.
//
//	// Transient: new instance every Make()
//	c.Bind("clock", func(c *container.Container) any { return &Clock{} })
//
//	// Singleton: created once, reused
//	c.Singleton("cache", func(c *container.Container) any {
//	    return cache.New(container.Resolve[*Config](c, "config"))
//	})
//
//	// Pre-built value
//	c.Instance("config", cfg)
//
//	// Alias
//	c.Alias("cache", "cacheManager")
//
// # Resolving
//
//	raw := c.Make("cache")                             // panics when unbound
//	v, err := c.Lookup("cache")                        // error when unbound
//	cache := container.Resolve[*Cache](c, "cache")     // typed, panics
//	cache, ok := container.TryResolve[*Cache](c, "cache")
//
// # Contexts
//
// A Context wraps a Container with an identity, an optional parent, an
// environment and a lifecycle:
//
//	created → configured → active → closed
//
// Refresh moves a context to active at most once. Close is idempotent; it
// disposes cached Disposable singletons in reverse creation order. A child
// falls back to its parent for unbound keys and never closes it.
//
// XMLContainer reads bean definitions from configuration locations on
// refresh. StaticContainer is populated in code. Catalog maps
// implementation names to constructors so hosts can name one in their
// init parameters.
//
// # Capabilities
//
// Contexts advertise capability tags (CapConfigurable, CapHosted,
// CapDocuments). Initializers declare the tag they need and are checked
// against it before any of them runs.
package container
