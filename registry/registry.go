// Package registry implements the Backend Registry of spec.md §4.2: a
// shared, refcounted map of Backend Objects keyed by their Endpoint Key
// within a sharing scope. Grounded on the teacher's cache/cache.go (map +
// mutex guarding a shared structure), with the LRU eviction policy replaced
// by refcount-to-zero deletion - the same "shared map guarded by one mutex,
// cheap acquire/release" shape, a different eviction trigger.
package registry

import (
	"fmt"
	"sync"

	"github.com/dynamicvmod/dynamic/backend"
)

// Registry is one sharing scope's worth of Backend Objects: a single
// process-wide Registry for backend.ScopeDirector, or one Registry owned
// per-Director for backend.ScopeHost, per spec.md §9 Design Notes.
type Registry struct {
	scope    backend.Scope
	director string
	stats    backend.StatsSink

	mu   sync.Mutex
	objs map[backend.Key]*entry
}

type entry struct {
	obj  *backend.Object
	refs int
}

// New builds a Registry for one sharing scope. director names the owning
// director for stats registration (spec.md §3's naming scheme); stats may
// be nil, in which case backend.NopStatsSink is used.
func New(scope backend.Scope, director string, stats backend.StatsSink) *Registry {
	if stats == nil {
		stats = backend.NopStatsSink{}
	}
	return &Registry{
		scope:    scope,
		director: director,
		stats:    stats,
		objs:     map[backend.Key]*entry{},
	}
}

// Ref is a live reference to a Backend Object. Callers must Release exactly
// once per successful Acquire.
type Ref struct {
	key backend.Key
	reg *Registry
	obj *backend.Object
}

// Object returns the referenced Backend Object.
func (r *Ref) Object() *backend.Object { return r.obj }

// Acquire returns a Ref to the Backend Object for key under r's scope,
// constructing one with attrs if none exists yet, per spec.md §4.2: "If a
// matching backend exists its reference count is incremented and that
// handle returned; otherwise a new Backend Object is constructed with the
// caller's attrs ... and returned at refcount 1."
func (r *Registry) Acquire(key backend.Key, attrs backend.Attrs) *Ref {
	key = key.WithScope(r.scope)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.objs[key]
	if !ok {
		obj := &backend.Object{Key: key, Attrs: attrs}
		if attrs.Probe != nil {
			obj.Probe = attrs.Probe.Clone(probeHostHeader(r.scope, key, attrs))
		}
		e = &entry{obj: obj}
		r.objs[key] = e
		r.stats.Register(backend.StatsName(r.director, key), obj)
	}
	e.refs++

	return &Ref{key: key, reg: r, obj: e.obj}
}

// probeHostHeader picks the probe's Host header: the director's configured
// host_header under ScopeDirector (if any, else none), or the Domain's own
// hostname under ScopeHost, per spec.md §4.2 "Probe attachment".
func probeHostHeader(scope backend.Scope, key backend.Key, attrs backend.Attrs) string {
	if scope == backend.ScopeHost {
		return key.Host
	}
	return attrs.HostHeader
}

// Release decrements ref's reference count, destroying and deregistering
// the underlying Backend Object when it reaches zero. Release is a no-op on
// a nil Ref or one already released.
func (r *Registry) Release(ref *Ref) {
	if ref == nil || ref.reg == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.objs[ref.key]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		ref.reg = nil
		return
	}
	if e.refs < 0 {
		panic(fmt.Sprintf("registry: negative refcount for %v", ref.key))
	}

	delete(r.objs, ref.key)
	r.stats.Deregister(backend.StatsName(r.director, ref.key))
	ref.reg = nil
}

// Len reports the number of distinct Backend Objects currently live, for
// tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objs)
}

// RefCount reports the current reference count for key (scoped), or zero if
// absent. For tests.
func (r *Registry) RefCount(key backend.Key) int {
	key = key.WithScope(r.scope)
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.objs[key]; ok {
		return e.refs
	}
	return 0
}
