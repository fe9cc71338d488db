package initializer

import (
	"sort"
	"sync"

	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/errs"
)

// Constructor builds an initializer with no arguments.
type Constructor func() (any, error)

// Catalog maps initializer names to constructors. Aliases point at a
// registered name, which is the implementation identity.
type Catalog struct {
	mu      sync.RWMutex
	ctors   map[string]Constructor
	aliases map[string]string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		ctors:   make(map[string]Constructor),
		aliases: make(map[string]string),
	}
}

// Register adds or replaces an implementation.
func (c *Catalog) Register(name string, ctor Constructor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctors[name] = ctor
	delete(c.aliases, name)
}

// Alias makes alias resolve to name. Chains are followed on lookup.
func (c *Catalog) Alias(name, alias string) {
	if name == alias {
		panic("initializer: [" + name + "] is aliased to itself")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = name
}

// Canonical follows aliases to a registered name.
func (c *Catalog) Canonical(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.canonical(name)
}

func (c *Catalog) canonical(name string) (string, bool) {
	seen := make(map[string]bool)
	for {
		if _, ok := c.ctors[name]; ok {
			return name, true
		}
		next, ok := c.aliases[name]
		if !ok || seen[name] {
			return "", false
		}
		seen[name] = true
		name = next
	}
}

// Names lists registered implementations, without aliases.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.ctors))
	for n := range c.ctors {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Instantiate resolves name and builds the initializer.
func (c *Catalog) Instantiate(name string) (Descriptor, error) {
	const op = "initializer.resolve"

	c.mu.RLock()
	identity, ok := c.canonical(name)
	ctor := c.ctors[identity]
	c.mu.RUnlock()

	if !ok {
		return Descriptor{}, errs.New(errs.CodeInitializerResolution, op, "no initializer named %q", name)
	}
	if ctor == nil {
		return Descriptor{}, errs.New(errs.CodeInitializerResolution, op, "initializer %q has no constructor", name)
	}
	v, err := ctor()
	if err != nil {
		return Descriptor{}, errs.Wrap(errs.CodeInitializerResolution, op, err, "constructing initializer %q", name)
	}
	in, ok := v.(Initializer)
	if !ok {
		return Descriptor{}, errs.New(errs.CodeInitializerResolution, op,
			"%q names %T, which is not an initializer", name, v)
	}
	return Describe(name, identity, in), nil
}

// Resolve tokenizes the global and scope-local parameter values and
// instantiates every named initializer, global first. An implementation
// named more than once is kept at its first position.
func (c *Catalog) Resolve(global, local string) ([]Descriptor, error) {
	names := append(config.Tokenize(global, config.InitParamDelimiters),
		config.Tokenize(local, config.InitParamDelimiters)...)

	seen := make(map[string]bool, len(names))
	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		if id, ok := c.Canonical(name); ok && seen[id] {
			continue
		}
		d, err := c.Instantiate(name)
		if err != nil {
			return nil, err
		}
		seen[d.Identity] = true
		out = append(out, d)
	}
	return out, nil
}
