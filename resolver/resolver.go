// Package resolver implements spec.md §4.1's Resolver Adapter: a uniform
// view over the host's system address-resolution service and an optional
// recursive DNS client, returning address lists with optional TTL and SRV
// records.
package resolver

import "context"

// Adapter is the contract every resolver variant satisfies. Domain and
// ServiceDomain (package dynamic) depend only on this interface, never on a
// concrete variant, so tests can supply resolvertest.Fake in its place.
type Adapter interface {
	// Resolve returns the address set for host, with port attached to every
	// record. Duplicates are removed. TTL is present only when the
	// underlying resolver can supply one.
	Resolve(ctx context.Context, host string, port int) (Result, error)

	// ResolveSRV resolves a service name to its SRV record set. Callers
	// must check SupportsSRV first; calling ResolveSRV on an Adapter that
	// does not support it returns ErrUnsupportedResolver.
	ResolveSRV(ctx context.Context, name string) (Result, error)

	// SupportsSRV reports whether ResolveSRV can succeed at all. The system
	// resolver and the recursive resolver both may return true; a resolver
	// wired up without SRV capability (a hand-rolled test double, say)
	// returns false so dynamic.Director can fail `.service()` calls at the
	// call site per spec.md §4.4.
	SupportsSRV() bool
}

// ErrUnsupportedResolver is returned by ResolveSRV when SupportsSRV is
// false.
var ErrUnsupportedResolver = unsupportedResolverError{}

type unsupportedResolverError struct{}

func (unsupportedResolverError) Error() string {
	return "resolver does not support SRV lookups"
}
