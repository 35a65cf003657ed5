// Package config implements spec.md §6's Director constructor parameters,
// the two-phase (mutable-init / immutable-runtime) resolver configuration
// from §9 Design Notes, and a CLI/parameter shim for hosts that configure
// directors from string-keyed values. Grounded on the teacher's
// SetSystemServers/WithZoneServer setters (meant to run once, early, before
// concurrent Query calls), made into an explicit, enforced two-phase type.
package config

import (
	"net"
	"strconv"
	"time"

	"github.com/dynamicvmod/dynamic/acl"
	"github.com/dynamicvmod/dynamic/backend"
	"github.com/dynamicvmod/dynamic/resolver"
)

// TTLFrom selects how a Domain's sleep interval is sourced, per spec.md
// §4.3 "TTL selection."
type TTLFrom int

const (
	// TTLFromCfg always uses the configured TTL. The only valid choice when
	// no resolver is configured.
	TTLFromCfg TTLFrom = iota
	// TTLFromDNS uses the DNS TTL if present, else the configured TTL.
	TTLFromDNS
	// TTLFromMin uses min(DNS TTL, configured TTL).
	TTLFromMin
	// TTLFromMax uses max(DNS TTL, configured TTL).
	TTLFromMax
)

func (t TTLFrom) String() string {
	switch t {
	case TTLFromDNS:
		return "dns"
	case TTLFromMin:
		return "min"
	case TTLFromMax:
		return "max"
	default:
		return "cfg"
	}
}

// Params is the mutable director-constructor parameter set of spec.md §6.
// Defaults returns the documented default set; callers set fields directly
// (idiomatic for a struct-of-options builder) and call Build to validate
// and freeze it. A zero Params builds to the same values except
// FirstLookupTimeout, which Build leaves at zero.
type Params struct {
	Port               string
	HostHeader         string
	Share              backend.Scope
	Probe              backend.ProbeTemplate
	Whitelist          *acl.Whitelist
	TTL                time.Duration
	ConnectTimeout     time.Duration
	FirstByteTimeout   time.Duration
	BetweenBytesTimeout time.Duration
	DomainUsageTimeout time.Duration
	FirstLookupTimeout time.Duration
	MaxConnections     int
	ProxyHeaderVersion int
	Resolver           resolver.Adapter
	TTLFrom            TTLFrom
}

// Defaults returns a Params populated with spec.md §6's documented
// defaults.
func Defaults() Params {
	return Params{
		Port:               "http",
		Share:              backend.ScopeDirector,
		TTL:                3600 * time.Second,
		DomainUsageTimeout: 7200 * time.Second,
		FirstLookupTimeout: 10 * time.Second,
		ProxyHeaderVersion: 0,
		TTLFrom:            TTLFromCfg,
	}
}

// Resolved is the immutable, validated form of Params, produced by Build.
// dynamic.NewDirector accepts only a Resolved.
type Resolved struct {
	Port               string
	PortNum            int
	HostHeader         string
	Share              backend.Scope
	Probe              backend.ProbeTemplate
	Whitelist          *acl.Whitelist
	TTL                time.Duration
	ConnectTimeout     time.Duration
	FirstByteTimeout   time.Duration
	BetweenBytesTimeout time.Duration
	DomainUsageTimeout time.Duration
	FirstLookupTimeout time.Duration
	MaxConnections     int
	ProxyHeaderVersion int
	Resolver           resolver.Adapter
	TTLFrom            TTLFrom
}

// Build validates p and returns its immutable Resolved form, per spec.md
// §7's configuration-error kind.
func (p Params) Build() (Resolved, error) {
	if p.Port == "" {
		p.Port = "http"
	}
	portNum, err := resolvePort(p.Port)
	if err != nil {
		return Resolved{}, configErrorf("invalid port %q", p.Port)
	}

	if p.ProxyHeaderVersion != 0 && p.ProxyHeaderVersion != 1 && p.ProxyHeaderVersion != 2 {
		return Resolved{}, configErrorf("invalid proxy_header %d", p.ProxyHeaderVersion)
	}

	if p.TTLFrom != TTLFromCfg {
		if p.Resolver == nil {
			return Resolved{}, configErrorf("ttl_from %q requires a resolver", p.TTLFrom)
		}
		if _, isSystem := p.Resolver.(*resolver.System); isSystem {
			return Resolved{}, configErrorf("ttl_from %q is invalid with the system resolver: only \"cfg\" carries no TTL", p.TTLFrom)
		}
	}

	if p.TTL <= 0 {
		p.TTL = 3600 * time.Second
	}
	if p.DomainUsageTimeout <= 0 {
		p.DomainUsageTimeout = 7200 * time.Second
	}
	if p.FirstLookupTimeout < 0 {
		return Resolved{}, configErrorf("first_lookup_timeout must be >= 0")
	}

	return Resolved{
		Port:               p.Port,
		PortNum:            portNum,
		HostHeader:         p.HostHeader,
		Share:              p.Share,
		Probe:              p.Probe,
		Whitelist:          p.Whitelist,
		TTL:                p.TTL,
		ConnectTimeout:     p.ConnectTimeout,
		FirstByteTimeout:   p.FirstByteTimeout,
		BetweenBytesTimeout: p.BetweenBytesTimeout,
		DomainUsageTimeout: p.DomainUsageTimeout,
		FirstLookupTimeout: p.FirstLookupTimeout,
		MaxConnections:     p.MaxConnections,
		ProxyHeaderVersion: p.ProxyHeaderVersion,
		Resolver:           p.Resolver,
		TTLFrom:            p.TTLFrom,
	}, nil
}

// resolvePort resolves a symbolic or numeric port to numeric form, per
// spec.md §3: "Ports may appear symbolically (e.g. http) and are resolved to
// numeric form before keying."
func resolvePort(port string) (int, error) {
	if n, err := strconv.Atoi(port); err == nil {
		return n, nil
	}
	return net.LookupPort("tcp", port)
}
