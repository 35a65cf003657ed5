package resolver

import (
	"context"
	"errors"
	"net"
	"strconv"
)

// System resolves through the host operating system's address resolution
// service (net.DefaultResolver, or a Resolver supplied for testing). It
// never reports a TTL and, per spec.md §6, only ttl_from "cfg" is a valid
// configuration when a Director uses it.
type System struct {
	// LookupResolver is the underlying net.Resolver used for A/AAAA lookups.
	// Defaults to net.DefaultResolver when nil.
	LookupResolver *net.Resolver
}

var _ Adapter = (*System)(nil)

func (s *System) resolver() *net.Resolver {
	if s.LookupResolver != nil {
		return s.LookupResolver
	}
	return net.DefaultResolver
}

func (s *System) Resolve(ctx context.Context, host string, port int) (Result, error) {
	ips, err := s.resolver().LookupIPAddr(ctx, host)
	if err != nil {
		return Result{}, toResolveError(host, err)
	}

	addrs := make([]AddrRecord, 0, len(ips))
	seen := map[string]bool{}
	for _, ip := range ips {
		a := ip.IP.String()
		if seen[a] {
			continue
		}
		seen[a] = true
		addrs = append(addrs, AddrRecord{Addr: a, Port: port})
	}

	return Result{Addrs: addrs}, nil
}

func (s *System) ResolveSRV(ctx context.Context, name string) (Result, error) {
	_, srvs, err := s.resolver().LookupSRV(ctx, "", "", name)
	if err != nil {
		return Result{}, toResolveError(name, err)
	}

	out := make([]SRVRecord, 0, len(srvs))
	for _, rr := range srvs {
		out = append(out, SRVRecord{
			Priority: rr.Priority,
			Weight:   rr.Weight,
			Target:   trimTrailingDot(rr.Target),
			Port:     int(rr.Port),
		})
	}

	return Result{SRV: out}, nil
}

func (s *System) SupportsSRV() bool { return true }

func trimTrailingDot(s string) string {
	if s == "." || s == "" {
		return s
	}
	if s[len(s)-1] == '.' {
		return s[:len(s)-1]
	}
	return s
}

func toResolveError(host string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		code := CodeOther
		switch {
		case dnsErr.IsNotFound:
			code = CodeNoName
		case dnsErr.IsTemporary || dnsErr.IsTimeout:
			code = CodeTemporary
		}
		return &ResolveError{Host: host, Code: code, Reason: dnsErr.Err, Err: err}
	}
	return &ResolveError{Host: host, Code: CodeOther, Reason: err.Error(), Err: err}
}

// portFromString resolves a symbolic or numeric port (spec.md §5: "Ports may
// appear symbolically ... and are resolved to numeric form before keying").
func portFromString(network, port string) (int, error) {
	if n, err := strconv.Atoi(port); err == nil {
		return n, nil
	}
	p, err := net.LookupPort(network, port)
	if err != nil {
		return 0, errors.New("unresolvable port: " + port)
	}
	return p, nil
}
