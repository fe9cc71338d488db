// Package initializer discovers, validates, orders and applies the
// components that configure a container before its refresh.
//
// Initializers are named in two init parameters, a global one and a
// scope-local one. Both lists are combined; an implementation named in
// both, or under an alias, runs once.
//
//	cat := initializer.NewCatalog()
//	cat.Register("logger", func() (any, error) { return &LoggerInitializer{}, nil })
//	cat.Alias("logger", "log")
//
//	descs, err := cat.Resolve("logger", "log, metrics")
//	err = initializer.Apply(ctx, descs, logger)
package initializer

import (
	"math"

	"github.com/km-arc/go-bootstrap/framework/container"
)

// Precedence bounds. Lower runs first.
const (
	HighestPrecedence = math.MinInt
	LowestPrecedence  = math.MaxInt
)

// Initializer configures a container in place before refresh.
type Initializer interface {
	Initialize(ctx container.Configurable) error
}

// Ordered initializers declare their position. Initializers without an
// order run last, in discovery order.
type Ordered interface {
	Order() int
}

// Targeted initializers declare the container capability they need.
type Targeted interface {
	RequiredCapability() container.Capability
}

// Descriptor is a resolved initializer.
type Descriptor struct {
	// Name is the identifier it was discovered under.
	Name string
	// Identity is the canonical implementation name; duplicates collapse on it.
	Identity string
	Instance Initializer
	Order    int
	// Requires is empty when the initializer runs against any container.
	Requires container.Capability
}

// Describe builds a Descriptor, reading the optional Ordered and Targeted
// declarations from the instance.
func Describe(name, identity string, in Initializer) Descriptor {
	d := Descriptor{Name: name, Identity: identity, Instance: in, Order: LowestPrecedence}
	if o, ok := in.(Ordered); ok {
		d.Order = o.Order()
	}
	if t, ok := in.(Targeted); ok {
		d.Requires = t.RequiredCapability()
	}
	return d
}

// Programmatic describes initializers supplied in code. Each one is named
// after its package-qualified type and identified by its type and address.
func Programmatic(ins ...Initializer) []Descriptor {
	out := make([]Descriptor, 0, len(ins))
	for _, in := range ins {
		if in == nil {
			continue
		}
		id := container.IdentityString(in)
		out = append(out, Describe(container.TypeKey(in), id, in))
	}
	return out
}
