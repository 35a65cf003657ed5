package resolver

import "time"

// Namespace is one of the namespaces a recursive client can be configured to
// consult, per spec.md §4.1.
type Namespace int

const (
	NamespaceDNS Namespace = iota
	NamespaceLocalNames
	NamespaceNetBIOS
	NamespaceMDNS
	NamespaceNIS
)

func (n Namespace) String() string {
	switch n {
	case NamespaceDNS:
		return "DNS"
	case NamespaceLocalNames:
		return "LOCALNAMES"
	case NamespaceNetBIOS:
		return "NETBIOS"
	case NamespaceMDNS:
		return "MDNS"
	case NamespaceNIS:
		return "NIS"
	default:
		return "UNKNOWN"
	}
}

// Transport is one of the wire transports a recursive client may use.
type Transport int

const (
	TransportUDP Transport = iota
	TransportTCP
	TransportTLS
)

func (t Transport) String() string {
	switch t {
	case TransportTCP:
		return "TCP"
	case TransportTLS:
		return "TLS"
	default:
		return "UDP"
	}
}

// RecursionMode selects whether the client performs its own iterative
// resolution (RECURSING) or defers entirely to a single upstream recursive
// server (STUB).
type RecursionMode int

const (
	ModeRecursing RecursionMode = iota
	ModeStub
)

// RecursiveOptions is the immutable configuration a Recursive resolver is
// built from. It is produced by config.ResolverInit.Build() (package
// config), which enforces spec.md §4.1's "all such setters are callable
// only from the configuration-init phase."
type RecursiveOptions struct {
	Namespaces      []Namespace
	Transports      []Transport
	IdleTimeout     time.Duration
	QueryTimeout    time.Duration
	MaxOutstanding  int
	FollowRedirects bool
	Mode            RecursionMode

	// SystemServers, if non-empty, overrides discoverSystemServers - mainly
	// for tests, mirroring the teacher's SetSystemServers.
	SystemServers []string

	TimeoutPolicy TimeoutPolicy
	CachePolicy   CachePolicy

	// CacheSize bounds the number of (server, question) entries the
	// recursive walk's wire-response cache keeps before evicting the
	// least-recently-used one. Zero means DefaultCacheSize.
	CacheSize int
}

// DefaultCacheSize is used when RecursiveOptions.CacheSize is zero.
const DefaultCacheSize = 10_000

// DefaultRecursiveOptions returns sane defaults: DNS namespace only, UDP
// transport, 16 outstanding queries, recursing mode.
func DefaultRecursiveOptions() RecursiveOptions {
	return RecursiveOptions{
		Namespaces:      []Namespace{NamespaceDNS},
		Transports:      []Transport{TransportUDP},
		IdleTimeout:     30 * time.Second,
		QueryTimeout:    2 * time.Second,
		MaxOutstanding:  16,
		FollowRedirects: true,
		Mode:            ModeRecursing,
	}
}
