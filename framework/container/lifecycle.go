package container

import (
	"io/fs"

	"github.com/km-arc/go-bootstrap/framework/env"
)

// State of a bootstrapped context.
type State int

const (
	Created State = iota
	Configured
	Active
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Configured:
		return "configured"
	case Active:
		return "active"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Capability is a tag a context advertises. Initializers declare the tag
// they need; the sequencer checks it before running anything.
type Capability string

const (
	// CapConfigurable: the context can be configured and refreshed.
	CapConfigurable Capability = "configurable"
	// CapHosted: the context accepts a hosting environment.
	CapHosted Capability = "hosted"
	// CapDocuments: the context loads definitions from config locations.
	CapDocuments Capability = "documents"
)

// Binder is the binding API initializers and readers use.
type Binder interface {
	Bind(abstract string, factory Factory)
	Singleton(abstract string, factory Factory)
	Instance(abstract string, instance any)
	Alias(abstract, alias string)
	Make(abstract string) any
	Lookup(abstract string) (any, error)
	Bound(abstract string) bool
	Bindings() []string
	Tag(abstracts []string, tag string)
	Tagged(tag string) []any
}

// Context is the read side of a bootstrapped container.
type Context interface {
	Binder
	ID() string
	DisplayName() string
	Parent() Context
	State() State
	Has(cap Capability) bool
	Capabilities() []Capability
}

// Configurable is a Context that can be configured, refreshed and closed.
type Configurable interface {
	Context
	SetID(id string)
	SetDisplayName(name string)
	SetParent(parent Context)
	Environment() env.Configurable
	// Refresh moves Created/Configured to Active, at most once.
	Refresh() error
	// Close moves to Closed; closing twice is a no-op.
	Close() error
}

// HostInfo is what a context learns about its hosting environment.
type HostInfo interface {
	ContextPath() string
	Root() fs.FS
}

// HostAware contexts accept a hosting environment before refresh.
type HostAware interface {
	SetHost(h HostInfo)
}

// LocationAware contexts read definitions from configuration locations.
type LocationAware interface {
	SetConfigLocation(location string) error
	SetConfigLocations(locations []string) error
	ConfigLocations() []string
}

// NamespaceAware contexts derive default locations from a namespace.
type NamespaceAware interface {
	SetNamespace(ns string)
}

// Disposable values release resources when their owner shuts down.
type Disposable interface {
	Dispose() error
}
