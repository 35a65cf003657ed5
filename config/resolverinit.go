package config

import (
	"sync"
	"time"

	"github.com/dynamicvmod/dynamic/resolver"
)

// ResolverInit is the mutable, init-only phase of a recursive resolver's
// configuration, per spec.md §4.1: "All such setters are callable only from
// the configuration-init phase; attempting them later fails configuration
// loading." Build converts it into an immutable *resolver.Recursive; every
// setter after that returns ErrInitPhaseClosed.
type ResolverInit struct {
	mu     sync.Mutex
	closed bool
	opts   resolver.RecursiveOptions
}

// NewResolverInit starts a fresh init phase from resolver.DefaultRecursiveOptions.
func NewResolverInit() *ResolverInit {
	return &ResolverInit{opts: resolver.DefaultRecursiveOptions()}
}

func (r *ResolverInit) set(fn func(*resolver.RecursiveOptions)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrInitPhaseClosed
	}
	fn(&r.opts)
	return nil
}

func (r *ResolverInit) SetNamespaces(ns ...resolver.Namespace) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.Namespaces = ns })
}

func (r *ResolverInit) SetTransports(t ...resolver.Transport) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.Transports = t })
}

func (r *ResolverInit) SetIdleTimeout(d time.Duration) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.IdleTimeout = d })
}

func (r *ResolverInit) SetQueryTimeout(d time.Duration) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.QueryTimeout = d })
}

func (r *ResolverInit) SetMaxOutstanding(n int) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.MaxOutstanding = n })
}

func (r *ResolverInit) SetFollowRedirects(b bool) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.FollowRedirects = b })
}

func (r *ResolverInit) SetMode(m resolver.RecursionMode) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.Mode = m })
}

// SetSystemServers overrides automatic system-server discovery, mainly for
// tests - mirrors the teacher's own SetSystemServers.
func (r *ResolverInit) SetSystemServers(addrs ...string) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.SystemServers = addrs })
}

func (r *ResolverInit) SetTimeoutPolicy(p resolver.TimeoutPolicy) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.TimeoutPolicy = p })
}

func (r *ResolverInit) SetCachePolicy(p resolver.CachePolicy) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.CachePolicy = p })
}

// SetCacheSize bounds the recursive walk's internal wire-response cache.
func (r *ResolverInit) SetCacheSize(n int) error {
	return r.set(func(o *resolver.RecursiveOptions) { o.CacheSize = n })
}

// Build closes the init phase and returns the immutable recursive resolver.
// Every setter called on r after Build returns ErrInitPhaseClosed; Build
// itself may be called only once.
func (r *ResolverInit) Build() (*resolver.Recursive, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrInitPhaseClosed
	}
	r.closed = true
	return resolver.NewRecursive(r.opts), nil
}
