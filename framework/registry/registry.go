// Package registry binds active root containers to execution scopes.
//
// A scope holds at most one entry: the live container, or the error that
// made its bootstrap fail. Callers never lock; every write is an atomic
// insert-if-absent, swap or delete on a sync.Map.
//
// Besides the keyed entries the registry keeps one ambient cell for
// lookups that carry no scope key. Only the distinguished owner set with
// SetOwner may publish into it.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/errs"
)

// ScopeKey identifies one execution scope, typically one hosted server.
type ScopeKey string

// Entry is what a scope is bound to. Exactly one of Context and Err is set.
type Entry struct {
	Context container.Context
	Err     error
}

// Failed reports whether the entry records a failed bootstrap.
func (e *Entry) Failed() bool { return e.Err != nil }

// Registry is safe for concurrent use. The zero value is ready.
type Registry struct {
	entries sync.Map // ScopeKey -> *Entry
	ambient atomic.Pointer[container.Context]
	owner   atomic.Pointer[string]
}

// New creates an empty registry.
func New() *Registry { return &Registry{} }

var std = New()

// Default returns the process-wide registry.
func Default() *Registry { return std }

// Register binds ctx to key. A live container already bound there wins and
// DuplicateActiveContainer is returned; a recorded failure is replaced. A nil
// ctx is rejected with IllegalState and leaves key untouched.
func (r *Registry) Register(key ScopeKey, ctx container.Context) error {
	if ctx == nil {
		return errs.New(errs.CodeIllegalState, "registry.register", "nil container for scope %q", key)
	}
	next := &Entry{Context: ctx}
	for {
		prev, loaded := r.entries.LoadOrStore(key, next)
		if !loaded {
			return nil
		}
		cur := prev.(*Entry)
		if !cur.Failed() {
			return errs.New(errs.CodeDuplicateActiveContainer, "registry.register",
				"scope %q already has an active container %s", key, cur.Context.ID())
		}
		if r.entries.CompareAndSwap(key, cur, next) {
			return nil
		}
	}
}

// Publish registers ctx and, when owner is the distinguished owner, also
// stores it in the ambient cell.
func (r *Registry) Publish(key ScopeKey, ctx container.Context, owner string) error {
	if err := r.Register(key, ctx); err != nil {
		return err
	}
	if o := r.owner.Load(); o != nil && *o == owner {
		r.ambient.Store(&ctx)
	}
	return nil
}

// SetOwner names the caller allowed to publish into the ambient cell. An
// empty id disables ambient publication.
func (r *Registry) SetOwner(id string) {
	if id == "" {
		r.owner.Store(nil)
		return
	}
	r.owner.Store(&id)
}

// Lookup returns the live container bound to key. A failure entry is not a
// container and reports false.
func (r *Registry) Lookup(key ScopeKey) (container.Context, bool) {
	v, ok := r.entries.Load(key)
	if !ok {
		return nil, false
	}
	e := v.(*Entry)
	if e.Failed() {
		return nil, false
	}
	return e.Context, true
}

// Current resolves key first, then the ambient cell. The empty key only
// consults the ambient cell.
func (r *Registry) Current(key ScopeKey) (container.Context, bool) {
	if key != "" {
		if ctx, ok := r.Lookup(key); ok {
			return ctx, true
		}
	}
	if p := r.ambient.Load(); p != nil {
		return *p, true
	}
	return nil, false
}

// Failure returns the error recorded for key, if any.
func (r *Registry) Failure(key ScopeKey) error {
	v, ok := r.entries.Load(key)
	if !ok {
		return nil
	}
	return v.(*Entry).Err
}

// RecordFailure binds the failure itself to key. A live container already
// bound there is left alone.
func (r *Registry) RecordFailure(key ScopeKey, err error) {
	if err == nil {
		return
	}
	next := &Entry{Err: err}
	for {
		prev, loaded := r.entries.LoadOrStore(key, next)
		if !loaded {
			return
		}
		cur := prev.(*Entry)
		if !cur.Failed() || r.entries.CompareAndSwap(key, cur, next) {
			return
		}
	}
}

// Unregister removes whatever is bound to key. The ambient cell is cleared
// if it holds the removed container. Absent keys are a no-op.
func (r *Registry) Unregister(key ScopeKey) {
	v, ok := r.entries.LoadAndDelete(key)
	if !ok {
		return
	}
	e := v.(*Entry)
	if e.Failed() {
		return
	}
	if p := r.ambient.Load(); p != nil && *p == e.Context {
		r.ambient.CompareAndSwap(p, nil)
	}
}

// Keys lists the bound scopes, failures included.
func (r *Registry) Keys() []ScopeKey {
	var out []ScopeKey
	r.entries.Range(func(k, _ any) bool {
		out = append(out, k.(ScopeKey))
		return true
	})
	return out
}

// Len counts live containers.
func (r *Registry) Len() int {
	n := 0
	r.entries.Range(func(_, v any) bool {
		if !v.(*Entry).Failed() {
			n++
		}
		return true
	})
	return n
}
