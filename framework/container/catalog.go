package container

import (
	"sort"
	"sync"

	"github.com/km-arc/go-bootstrap/framework/errs"
)

// Constructor builds a context implementation with no arguments.
type Constructor func() (any, error)

// Names of the built-in implementations.
const (
	XMLType    = "xml"
	StaticType = "static"
)

// Catalog maps implementation names to constructors. It replaces loading
// classes by name: every implementation a host may ask for is registered
// up front.
type Catalog struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{ctors: make(map[string]Constructor)}
}

// DefaultCatalog holds the built-in implementations.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.Register(XMLType, func() (any, error) { return NewXMLContainer(), nil })
	c.Register(StaticType, func() (any, error) { return NewStaticContainer(), nil })
	return c
}

// Register adds or replaces an implementation. A nil constructor marks a
// known name that cannot be instantiated.
func (c *Catalog) Register(name string, ctor Constructor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctors[name] = ctor
}

// Names lists registered implementations.
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

// Instantiate builds the named implementation and checks that it is
// Configurable.
func (c *Catalog) Instantiate(name string) (Configurable, error) {
	const op = "container.instantiate"

	c.mu.RLock()
	ctor, ok := c.ctors[name]
	c.mu.RUnlock()

	switch {
	case !ok:
		return nil, errs.New(errs.CodeInstantiation, op, "no container implementation named %q", name)
	case ctor == nil:
		return nil, errs.New(errs.CodeInstantiation, op, "container implementation %q has no constructor", name)
	}

	v, err := ctor()
	if err != nil {
		return nil, errs.Wrap(errs.CodeInstantiation, op, err, "constructing container implementation %q", name)
	}
	cfg, ok := v.(Configurable)
	if !ok {
		return nil, errs.New(errs.CodeIncompatibleContainerType, op,
			"container implementation %q (%T) is not configurable", name, v)
	}
	return cfg, nil
}
