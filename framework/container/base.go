package container

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/env"
	"github.com/km-arc/go-bootstrap/framework/errs"
)

// Base carries the identity and lifecycle shared by every context
// implementation. Implementations embed it and pass their refresh step to
// initBase.
type Base struct {
	*Container

	mu          sync.Mutex
	id          string
	displayName string
	parent      Context
	env         *env.Environment
	state       State
	refreshing  bool
	caps        map[Capability]bool
	host        HostInfo
	onRefresh   func() error

	logger *zap.Logger
}

// initBase wires the embedded Base. self is the outer context and supplies
// the default identity.
func (b *Base) initBase(self any, onRefresh func() error, caps ...Capability) {
	b.Container = New()
	b.id = IdentityString(self)
	b.displayName = b.id
	b.env = env.Standard()
	b.state = Created
	b.onRefresh = onRefresh
	b.logger = zap.NewNop()
	b.caps = make(map[Capability]bool, len(caps))
	for _, c := range caps {
		b.caps[c] = true
	}
	b.Container.AfterResolving(func(abstract string, instance any) {
		b.logger.Debug("resolved binding",
			zap.String("abstract", abstract),
			zap.String("type", fmt.Sprintf("%T", instance)))
	})
}

// SetLogger replaces the no-op logger.
func (b *Base) SetLogger(l *zap.Logger) {
	if l != nil {
		b.logger = l
	}
}

func (b *Base) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

func (b *Base) SetID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.id = id
	b.touch()
}

func (b *Base) DisplayName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.displayName
}

func (b *Base) SetDisplayName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.displayName = name
}

func (b *Base) Parent() Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parent
}

// SetParent links a parent context. The parent is shared, never closed by
// the child.
func (b *Base) SetParent(parent Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = parent
	b.touch()
}

func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Base) Environment() env.Configurable { return b.env }

// SetHost attaches the hosting environment.
func (b *Base) SetHost(h HostInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.host = h
	b.touch()
}

// Host returns the attached hosting environment, or nil.
func (b *Base) Host() HostInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.host
}

func (b *Base) Has(c Capability) bool { return b.caps[c] }

func (b *Base) Capabilities() []Capability {
	out := make([]Capability, 0, len(b.caps))
	for c := range b.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// touch moves Created to Configured (must hold mu).
func (b *Base) touch() {
	if b.state == Created {
		b.state = Configured
	}
}

// Lookup falls back to the parent context when nothing is bound locally.
func (b *Base) Lookup(abstract string) (any, error) {
	v, err := b.Container.Lookup(abstract)
	if err == nil {
		return v, nil
	}
	if p := b.Parent(); p != nil {
		if pv, perr := p.Lookup(abstract); perr == nil {
			return pv, nil
		}
	}
	return nil, err
}

// Make is Lookup that panics when nothing is bound here or in a parent.
func (b *Base) Make(abstract string) any {
	v, err := b.Lookup(abstract)
	if err != nil {
		panic(err.Error())
	}
	return v
}

// Refresh runs the refresh step once. A failed refresh leaves the state
// unchanged so the caller can report it; an Active or Closed context
// refuses.
func (b *Base) Refresh() error {
	b.mu.Lock()
	if b.state == Active || b.state == Closed || b.refreshing {
		state := b.state
		b.mu.Unlock()
		return errs.New(errs.CodeIllegalState, "container.refresh",
			"cannot refresh %s in state %s: refresh is allowed once", b.id, state)
	}
	b.refreshing = true
	step, id := b.onRefresh, b.id
	b.mu.Unlock()

	b.logger.Debug("refreshing container", zap.String("id", id))
	var err error
	if step != nil {
		err = step()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshing = false
	if err != nil {
		return err
	}
	b.state = Active
	return nil
}

// Close disposes cached singletons in reverse creation order and clears all
// bindings. Every disposal runs; their errors are joined.
func (b *Base) Close() error {
	b.mu.Lock()
	if b.state == Closed {
		b.mu.Unlock()
		return nil
	}
	b.state = Closed
	id := b.id
	b.mu.Unlock()

	b.logger.Debug("closing container", zap.String("id", id))
	instances := b.Container.Instances()
	var errList []error
	for i := len(instances) - 1; i >= 0; i-- {
		if d, ok := instances[i].(Disposable); ok {
			if err := d.Dispose(); err != nil {
				errList = append(errList, err)
			}
		}
	}
	b.Container.Flush()
	return errors.Join(errList...)
}
