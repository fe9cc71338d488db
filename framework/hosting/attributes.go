package hosting

import (
	"sort"
	"sync"
)

// AttributeStore is the server-wide attribute map shared by everything
// hosted on one server.
type AttributeStore interface {
	Attribute(name string) (any, bool)
	SetAttribute(name string, value any)
	RemoveAttribute(name string)
	// AttributeNames returns a snapshot, sorted.
	AttributeNames() []string
}

// Attributes is an AttributeStore guarded by an RWMutex.
type Attributes struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewAttributes creates an empty store.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]any)}
}

func (a *Attributes) Attribute(name string) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.values[name]
	return v, ok
}

// SetAttribute stores value; a nil value removes the attribute.
func (a *Attributes) SetAttribute(name string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if value == nil {
		delete(a.values, name)
		return
	}
	a.values[name] = value
}

func (a *Attributes) RemoveAttribute(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.values, name)
}

func (a *Attributes) AttributeNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.values))
	for n := range a.values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
