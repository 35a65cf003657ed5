package resolver

import (
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/publicsuffix"
)

// TimeoutPolicy determines the round-trip timeout for a single DNS query.
//
// recordType is the type of record being queried ("A", "AAAA", "SRV", ...)
// and nameServerAddress is the "ip:port" of the server being queried.
//
// Any non-positive duration is understood as an infinite timeout.
type TimeoutPolicy func(recordType, domainName, nameServerAddress string) (timeout time.Duration)

// DefaultTimeoutPolicy assumes low latency to addresses in PrivateNets and
// gives such queries 100ms; everything else gets 1s.
func DefaultTimeoutPolicy() TimeoutPolicy {
	return defaultTimeoutPolicy
}

func defaultTimeoutPolicy(recordType, domainName, nameServerAddress string) time.Duration {
	ipStr, _, err := net.SplitHostPort(nameServerAddress)
	if err != nil {
		return time.Second
	}
	ip := net.ParseIP(ipStr)

	for _, n := range PrivateNets {
		if n.Contains(ip) {
			return 100 * time.Millisecond
		}
	}

	return time.Second
}

// PrivateNets is consulted by DefaultTimeoutPolicy to give a short timeout
// to name servers on private/reserved networks.
var PrivateNets = []*net.IPNet{
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("169.254.0.0/16"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.0.0.0/24"),
	mustParseCIDR("192.0.2.0/24"),
	mustParseCIDR("192.168.0.0/16"),
	mustParseCIDR("198.18.0.0/15"),
	mustParseCIDR("198.51.100.0/24"),
	mustParseCIDR("203.0.113.0/24"),
	mustParseCIDR("233.252.0.0/24"),
	mustParseCIDR("::1/128"),
	mustParseCIDR("2001:db8::/32"),
	mustParseCIDR("fd00::/8"),
	mustParseCIDR("fe80::/10"),
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, n, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	return n
}

// CachePolicy determines how long a response to a single wire query stays
// fresh in doQuery's per-(server,question) cache. This governs the walk's
// intermediate delegation responses and, since doQuery consults the same
// cache for every hop of the walk (root, TLD, zone and the final answer
// alike), also the leaf answer itself - a single Resolve call benefits from
// caching at every step, not just the slow-moving top of the tree. This is
// unrelated to the Domain-level TTL that spec.md §4.3 selects via ttl_from;
// those are separate caches at separate layers.
type CachePolicy func(*dns.Msg) time.Duration

// DefaultCachePolicy caches delegation responses for public-suffix zones
// (".com", ".co.uk", ...) for their advertised TTL - the well-known, slow
// moving top of the tree, which is always safe to reuse across unrelated
// lookups - and falls back to obeying whatever TTL the leaf answer itself
// advertises, with negativeTTL for NXDOMAIN, so a walk's final hop is cached
// too instead of being re-fetched on every sibling lookup.
func DefaultCachePolicy() CachePolicy {
	return composedCachePolicy(negativeCacheTTL)
}

// composedCachePolicy builds the policy described by DefaultCachePolicy
// around a given negative-answer TTL, so callers that need a different
// NXDOMAIN lifetime than the default aren't stuck re-implementing the
// delegation half from scratch.
func composedCachePolicy(negativeTTL time.Duration) CachePolicy {
	delegation := publicSuffixDelegationPolicy
	leaf := ObeyResponderAdvice(negativeTTL)
	return func(msg *dns.Msg) time.Duration {
		if ttl := delegation(msg); ttl > 0 {
			return ttl
		}
		return leaf(msg)
	}
}

const negativeCacheTTL = 30 * time.Second

func publicSuffixDelegationPolicy(msg *dns.Msg) time.Duration {
	var ttl time.Duration
	for i, rr := range append(append([]dns.RR{}, msg.Answer...), msg.Ns...) {
		hdr := rr.Header()
		if hdr.Rrtype != dns.TypeNS || !isPublicSuffix(hdr.Name) {
			return 0
		}

		rrTTL := time.Duration(hdr.Ttl) * time.Second
		if i == 0 || rrTTL < ttl {
			ttl = rrTTL
		}
	}
	return ttl
}

func isPublicSuffix(fqdn string) bool {
	name := strings.TrimSuffix(fqdn, ".")
	s, _ := publicsuffix.PublicSuffix(name)
	return s == name
}

// ObeyResponderAdvice returns a CachePolicy that obeys whatever TTL the
// answering server advertised, except for NXDOMAIN responses which are
// cached for negativeTTL.
func ObeyResponderAdvice(negativeTTL time.Duration) CachePolicy {
	return func(msg *dns.Msg) time.Duration {
		if msg.Rcode == dns.RcodeNameError {
			return negativeTTL
		}

		var ttl time.Duration
		for i, rr := range msg.Answer {
			rrTTL := time.Duration(rr.Header().Ttl) * time.Second
			if i == 0 || rrTTL < ttl {
				ttl = rrTTL
			}
		}
		return ttl
	}
}
