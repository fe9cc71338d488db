package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value from the container.
type Factory func(c *Container) any

// binding holds a registered factory and whether it is a singleton.
type binding struct {
	factory   Factory
	singleton bool
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the binding store every bootstrapped context embeds.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Make / Lookup / Resolve (generic)
//   - Tags (group multiple abstractions under one tag)
//   - Resolved event callbacks
//
// Definitions loaded from configuration documents are registered as
// instances under their bean id; initializers add their own bindings before
// refresh.
type Container struct {
	mu sync.RWMutex

	// abstract → binding
	bindings map[string]*binding

	// abstract → resolved singleton instance, in registration order
	instances map[string]any
	order     []string

	// alias → abstract (canonical key)
	aliases map[string]string

	// tag → []abstract
	tags map[string][]string

	// resolved callbacks: []func(abstract, instance)
	afterResolving []func(string, any)
}

// New creates an empty container.
func New() *Container {
	c := &Container{}
	c.reset()
	return c
}

func (c *Container) reset() {
	c.bindings = make(map[string]*binding)
	c.instances = make(map[string]any)
	c.order = nil
	c.aliases = make(map[string]string)
	c.tags = make(map[string][]string)
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient (new instance each Make) factory.
//
//	c.Bind("clock", func(c *container.Container) any { return time.Now })
func (c *Container) Bind(abstract string, factory Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bind(abstract, factory, false)
}

// Singleton registers a factory whose result is cached after first resolution.
//
//	c.Singleton("logger", func(c *container.Container) any {
//	    return zap.NewExample()
//	})
func (c *Container) Singleton(abstract string, factory Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bind(abstract, factory, true)
}

// Instance registers a pre-built value as a singleton, replacing any
// previous binding for the abstract.
func (c *Container) Instance(abstract string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	c.store(key, instance)
}

// bind is the internal registration helper (must hold mu.Lock).
func (c *Container) bind(abstract string, factory Factory, singleton bool) {
	key := c.canonical(abstract)
	// Drop existing singleton instance so it's rebuilt with the new factory
	c.drop(key)
	c.bindings[key] = &binding{factory: factory, singleton: singleton}
}

// store caches an instance (must hold mu.Lock).
func (c *Container) store(key string, instance any) {
	if _, ok := c.instances[key]; !ok {
		c.order = append(c.order, key)
	}
	c.instances[key] = instance
}

// drop forgets a cached instance (must hold mu.Lock).
func (c *Container) drop(key string) {
	if _, ok := c.instances[key]; !ok {
		return
	}
	delete(c.instances, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Alias registers an alternative name for an abstract.
func (c *Container) Alias(abstract, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if abstract == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", abstract))
	}
	c.aliases[alias] = c.canonical(abstract)
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple abstracts under a named group.
func (c *Container) Tag(abstracts []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], abstracts...)
}

// Tagged resolves all abstracts registered under a tag.
func (c *Container) Tagged(tag string) []any {
	c.mu.RLock()
	abstracts := append([]string(nil), c.tags[tag]...)
	c.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		result = append(result, c.Make(abs))
	}
	return result
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves an abstract and panics when nothing is bound. Use Lookup
// when absence is expected.
func (c *Container) Make(abstract string) any {
	instance, err := c.Lookup(abstract)
	if err != nil {
		panic(err.Error())
	}
	return instance
}

// Lookup resolves an abstract, returning an error when nothing is bound.
func (c *Container) Lookup(abstract string) (any, error) {
	c.mu.RLock()
	key := c.canonical(abstract)
	if inst, ok := c.instances[key]; ok {
		c.mu.RUnlock()
		return inst, nil
	}
	b, ok := c.bindings[key]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("container: no binding registered for [%s]", abstract)
	}
	return c.runFactory(key, b), nil
}

// runFactory executes a factory, optionally caching the result.
func (c *Container) runFactory(key string, b *binding) any {
	instance := b.factory(c)

	if b.singleton {
		c.mu.Lock()
		if existing, ok := c.instances[key]; ok {
			// another goroutine won the race
			instance = existing
		} else {
			c.store(key, instance)
		}
		c.mu.Unlock()
	}

	c.fireAfterResolving(key, instance)
	return instance
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound returns true if an abstract has been registered.
func (c *Container) Bound(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(abstract)
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	return hasBinding || hasInstance
}

// Flush resets the entire container.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Bindings returns all registered abstract keys, sorted.
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings)+len(c.instances))
	for k := range c.bindings {
		out = append(out, k)
	}
	for k := range c.instances {
		if _, already := c.bindings[k]; !already {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Instances returns the cached singletons in the order they were created.
func (c *Container) Instances() []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]any, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.instances[k])
	}
	return out
}

// canonical resolves an alias to its canonical key.
func (c *Container) canonical(abstract string) string {
	if target, ok := c.aliases[abstract]; ok {
		return target
	}
	return abstract
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired after any factory runs.
func (c *Container) AfterResolving(cb func(abstract string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireAfterResolving(abstract string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(abstract, instance)
	}
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key when working with interfaces.
//
//	key := container.TypeKey((*Clock)(nil))  // "example.com/app.Clock"
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}

// IdentityString renders v as "<type>@<address>", the default id of every
// context until one is assigned.
func IdentityString(v any) string {
	return fmt.Sprintf("%T@%p", v, v)
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	logger := container.Resolve[*zap.Logger](ctx, "logger")
func Resolve[T any](c Binder, abstract string) T {
	instance := c.Make(abstract)
	typed, ok := instance.(T)
	if !ok {
		panic(fmt.Sprintf("container: Resolve[%T]: [%s] resolved to %T", *new(T), abstract, instance))
	}
	return typed
}

// TryResolve is like Resolve but reports absence or a type mismatch
// instead of panicking.
func TryResolve[T any](c Binder, abstract string) (T, bool) {
	instance, err := c.Lookup(abstract)
	if err != nil {
		var zero T
		return zero, false
	}
	typed, ok := instance.(T)
	return typed, ok
}
