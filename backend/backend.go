// Package backend defines the Backend Object and its endpoint key, the
// host-collaborator interfaces the registry drives, and the stats naming
// scheme from spec.md §3. It has no analogue in the teacher repo; its types
// are plain structs in the teacher's no-framework idiom.
package backend

import (
	"fmt"
	"time"
)

// Scope selects how backends are deduplicated and shared across directors,
// per spec.md §3/§6 "share".
type Scope int

const (
	// ScopeDirector dedups on (address, port) only - backends may be shared
	// across directors whose scope is also ScopeDirector.
	ScopeDirector Scope = iota
	// ScopeHost dedups on (hostname, address, port); backends are never
	// shared across distinct hostnames even when they resolve to the same
	// address.
	ScopeHost
)

func (s Scope) String() string {
	if s == ScopeHost {
		return "HOST"
	}
	return "DIRECTOR"
}

// Key is the Endpoint Key of spec.md §3: (address, port) under ScopeDirector,
// (hostname, address, port) under ScopeHost. Host is always carried so a
// ScopeHost registry can dedup on it, but ScopeDirector lookups zero it out
// first (see WithScope).
type Key struct {
	Host string
	Addr string
	Port int
}

// WithScope returns the key used for deduplication under scope: identical to
// k except Host is cleared under ScopeDirector, per spec.md §3's "In DIRECTOR
// sharing scope the key is (address, port)".
func (k Key) WithScope(scope Scope) Key {
	if scope == ScopeDirector {
		k.Host = ""
	}
	return k
}

func (k Key) String() string {
	if k.Host == "" {
		return fmt.Sprintf("%s:%d", k.Addr, k.Port)
	}
	return fmt.Sprintf("%s.%s:%d", k.Host, k.Addr, k.Port)
}

// ProbeHandle is the host's opaque probe instance attached to one Backend
// Object. The core never inspects it beyond reading current health.
type ProbeHandle interface {
	// Healthy reports the probe's last known state. A backend with no probe
	// at all (nil ProbeHandle) is always eligible, per spec.md §4.3
	// "eligible if its probe state is healthy, or if it has no probe".
	Healthy() bool
}

// ProbeTemplate clones itself into a ProbeHandle bound to hostHeader, once
// per acquired backend, per spec.md §4.2 "Probe attachment".
type ProbeTemplate interface {
	Clone(hostHeader string) ProbeHandle
}

// Attrs carries the per-backend configuration the Registry uses to
// construct a new Backend Object on first acquire. Later acquires under the
// same Key reuse the existing Object and ignore Attrs (spec.md §4.2:
// "otherwise a new Backend Object is constructed with the caller's attrs").
type Attrs struct {
	ConnectTimeout      time.Duration
	FirstByteTimeout    time.Duration
	BetweenBytesTimeout time.Duration
	MaxConnections      int
	ProxyHeaderVersion  int
	HostHeader          string
	Probe               ProbeTemplate
}

// Object is the Backend Object of spec.md §3, owned by the registry.
// Construction and destruction are the registry's responsibility; Object
// itself is an inert value plus an opaque probe handle.
type Object struct {
	Key   Key
	Attrs Attrs
	Probe ProbeHandle
}

// Eligible reports whether this backend can be returned from pick(), per
// spec.md §4.3 "A member is eligible if its probe state is healthy, or if it
// has no probe."
func (o *Object) Eligible() bool {
	return o.Probe == nil || o.Probe.Healthy()
}

// StatsName implements the naming scheme of spec.md §3: "director(host.addr:port)"
// or "director(addr:port)".
func StatsName(director string, key Key) string {
	return fmt.Sprintf("%s(%s)", director, key.String())
}
