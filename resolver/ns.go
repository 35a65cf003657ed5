package resolver

import (
	"context"
	"net"

	"github.com/miekg/dns"
)

// nsSet is a set of name server addresses to query next, either the
// bootstrap system servers, the well-known root servers, or a delegation
// discovered in a prior response's NS records.
type nsSet interface {
	Err() error
	Addrs() []string // "ip:port" pairs
}

type hardCodedNSSet []string

var _ nsSet = (hardCodedNSSet)(nil)

func (set hardCodedNSSet) Err() error      { return nil }
func (set hardCodedNSSet) Addrs() []string { return set }

// delegationSet turns the NS (+ optional glue in Extra) records of a
// response into dialable "ip:port" addresses. NS records whose target has no
// glue address in the response's ADDITIONAL section are resolved with a
// plain system lookup (ctx-bound) rather than recursing through the
// root-walk again - a deliberate simplification of the general case, since
// virtually every real NS delegation carries glue.
type delegationSet struct {
	ctx  context.Context
	resp *dns.Msg
	err  error
	port string
}

func (set delegationSet) Err() error { return set.err }

func (set delegationSet) Addrs() []string {
	if set.resp == nil {
		return nil
	}

	glue := map[string][]string{}
	for _, rr := range set.resp.Extra {
		switch rr := rr.(type) {
		case *dns.A:
			glue[rr.Hdr.Name] = append(glue[rr.Hdr.Name], rr.A.String())
		case *dns.AAAA:
			glue[rr.Hdr.Name] = append(glue[rr.Hdr.Name], rr.AAAA.String())
		}
	}

	seen := map[string]bool{}
	var addrs []string
	for _, rr := range append(append([]dns.RR{}, set.resp.Answer...), set.resp.Ns...) {
		ns, ok := rr.(*dns.NS)
		if !ok {
			continue
		}

		ips := glue[ns.Ns]
		if len(ips) == 0 {
			ips = set.lookupGlueless(ns.Ns)
		}

		for _, ip := range ips {
			addr := net.JoinHostPort(ip, set.port)
			if seen[addr] {
				continue
			}
			seen[addr] = true
			addrs = append(addrs, addr)
		}
	}

	return addrs
}

func (set delegationSet) lookupGlueless(name string) []string {
	ips, err := net.DefaultResolver.LookupIPAddr(set.ctx, name)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ip.IP.String())
	}
	return out
}
