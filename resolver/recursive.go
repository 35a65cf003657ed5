package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/miekg/dns"

	rescache "github.com/dynamicvmod/dynamic/resolver/cache"
)

const maxCNAMEDepth = 10

// Recursive is the recursive-DNS-client Adapter variant. It resolves
// queries itself (ModeRecursing, walking delegations from the configured
// system servers down to an authoritative answer) or defers to the
// configured servers' own recursion (ModeStub), per spec.md §4.1.
type Recursive struct {
	opts  RecursiveOptions
	pool  *contextPool
	cache *rescache.Cache

	once    sync.Once
	sysErr  error
	sysAddr []string
}

var _ Adapter = (*Recursive)(nil)

// NewRecursive builds a Recursive resolver from a finished RecursiveOptions.
// Options are immutable from this point on, per spec.md §9's two-phase
// resolver design note.
func NewRecursive(opts RecursiveOptions) *Recursive {
	if opts.TimeoutPolicy == nil {
		opts.TimeoutPolicy = DefaultTimeoutPolicy()
	}
	if opts.CachePolicy == nil {
		opts.CachePolicy = DefaultCachePolicy()
	}
	transport := TransportUDP
	if len(opts.Transports) > 0 {
		transport = opts.Transports[0]
	}

	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	return &Recursive{
		opts:  opts,
		pool:  newContextPoolWithIdleTimeout(opts.MaxOutstanding, transport, opts.IdleTimeout),
		cache: rescache.New(cacheSize),
	}
}

func (r *Recursive) SupportsSRV() bool { return true }

func (r *Recursive) Resolve(ctx context.Context, host string, port int) (Result, error) {
	if err := r.checkNamespace(); err != nil {
		return Result{}, err
	}

	ctx, cancel := boundedTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	name := dns.CanonicalName(host)

	var (
		addrs    []AddrRecord
		ttl      time.Duration
		haveTTL  bool
		firstErr error
	)

	for _, qtype := range [...]uint16{dns.TypeA, dns.TypeAAAA} {
		trace := &Trace{}
		msg, _, err := r.resolveFollowingCNAME(ctx, dns.Question{
			Name:   name,
			Qtype:  qtype,
			Qclass: dns.ClassINET,
		}, trace)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, rr := range msg.Answer {
			switch rr := rr.(type) {
			case *dns.A:
				addrs = append(addrs, AddrRecord{Addr: rr.A.String(), Port: port})
				ttl, haveTTL = minTTL(ttl, haveTTL, rr.Hdr.Ttl)
			case *dns.AAAA:
				addrs = append(addrs, AddrRecord{Addr: rr.AAAA.String(), Port: port})
				ttl, haveTTL = minTTL(ttl, haveTTL, rr.Hdr.Ttl)
			}
		}
	}

	if len(addrs) == 0 && firstErr != nil {
		return Result{}, firstErr
	}

	return Result{Addrs: dedupAddrs(addrs), HasTTL: haveTTL, TTL: ttl}, nil
}

func (r *Recursive) ResolveSRV(ctx context.Context, name string) (Result, error) {
	if err := r.checkNamespace(); err != nil {
		return Result{}, err
	}

	ctx, cancel := boundedTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	trace := &Trace{}
	msg, _, err := r.resolveFollowingCNAME(ctx, dns.Question{
		Name:   dns.CanonicalName(name),
		Qtype:  dns.TypeSRV,
		Qclass: dns.ClassINET,
	}, trace)
	if err != nil {
		return Result{}, err
	}

	var (
		srv     []SRVRecord
		ttl     time.Duration
		haveTTL bool
	)
	for _, rr := range msg.Answer {
		s, ok := rr.(*dns.SRV)
		if !ok {
			continue
		}
		srv = append(srv, SRVRecord{
			Priority: s.Priority,
			Weight:   s.Weight,
			Target:   trimTrailingDot(s.Target),
			Port:     int(s.Port),
		})
		ttl, haveTTL = minTTL(ttl, haveTTL, s.Hdr.Ttl)
	}

	if len(srv) == 0 {
		return Result{}, nil
	}

	return Result{SRV: srv, HasTTL: haveTTL, TTL: ttl}, nil
}

func minTTL(cur time.Duration, have bool, rrTTL uint32) (time.Duration, bool) {
	d := time.Duration(rrTTL) * time.Second
	if !have || d < cur {
		return d, true
	}
	return cur, have
}

func dedupAddrs(in []AddrRecord) []AddrRecord {
	seen := make(map[string]bool, len(in))
	out := make([]AddrRecord, 0, len(in))
	for _, a := range in {
		key := fmt.Sprintf("%s:%d:%s", a.Addr, a.Port, a.Hostname)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// resolveFollowingCNAME runs queryIteratively and, if the answer is a CNAME
// chain rather than the requested type, follows it up to maxCNAMEDepth,
// detecting cycles along the way - unless FollowRedirects is false, in which
// case the first response is returned as-is and any CNAME is left
// unfollowed for the caller to see.
func (r *Recursive) resolveFollowingCNAME(ctx context.Context, q dns.Question, trace *Trace) (*dns.Msg, string, error) {
	result := r.queryIteratively(ctx, q, trace)
	if result.Error != nil {
		return nil, result.ServerAddr, result.Error
	}
	if !r.opts.FollowRedirects {
		return result.Response, result.ServerAddr, nil
	}

	seen := map[string]bool{q.Name: true}

	for depth := 0; ; depth++ {
		hasWanted := false
		var cnameTarget string
		for _, rr := range result.Response.Answer {
			if rr.Header().Rrtype == q.Qtype {
				hasWanted = true
			}
			if c, ok := rr.(*dns.CNAME); ok && cnameTarget == "" {
				cnameTarget = c.Target
			}
		}

		if hasWanted || cnameTarget == "" {
			return result.Response, result.ServerAddr, nil
		}

		if depth >= maxCNAMEDepth || seen[cnameTarget] {
			return nil, "", ErrCircular
		}
		seen[cnameTarget] = true
		q.Name = cnameTarget

		result = r.queryIteratively(ctx, q, trace)
		if result.Error != nil {
			return nil, result.ServerAddr, result.Error
		}
	}
}

type queryResult struct {
	Question   dns.Question
	ServerAddr string
	RTT        time.Duration
	Response   *dns.Msg
	Error      error
}

func (r queryResult) isDelegation() bool {
	if r.Error != nil || r.Response == nil {
		return false
	}
	resp := r.Response
	if resp.Authoritative {
		return false
	}
	all := append(append([]dns.RR{}, resp.Answer...), resp.Ns...)
	if len(all) == 0 {
		return false
	}
	for _, rr := range all {
		if _, ok := rr.(*dns.NS); !ok {
			return false
		}
	}
	return true
}

func (r *Recursive) queryIteratively(ctx context.Context, q dns.Question, trace *Trace) queryResult {
	servers, err := r.systemServers(ctx)
	if err != nil {
		return queryResult{Question: q, Error: err}
	}

	var set nsSet = hardCodedNSSet(servers)

	if r.opts.Mode == ModeStub {
		return r.doQuery(ctx, q, set, trace, true)
	}

	for {
		result := r.doQuery(ctx, q, set, trace, false)
		if result.isDelegation() {
			set = delegationSet{ctx: ctx, resp: result.Response, port: "53"}
			continue
		}
		return result
	}
}

// checkNamespace enforces the Namespaces option: this resolver only ever
// performs DNS lookups, so a configured namespace list that omits
// NamespaceDNS means every lookup must fail rather than silently falling
// back to DNS anyway. An empty list (the zero value) keeps the historical
// DNS-only behavior.
func (r *Recursive) checkNamespace() error {
	if len(r.opts.Namespaces) == 0 {
		return nil
	}
	for _, ns := range r.opts.Namespaces {
		if ns == NamespaceDNS {
			return nil
		}
	}
	return fmt.Errorf("recursive resolver: DNS namespace not enabled (configured: %v)", r.opts.Namespaces)
}

func (r *Recursive) systemServers(ctx context.Context) ([]string, error) {
	if len(r.opts.SystemServers) > 0 {
		return r.opts.SystemServers, nil
	}

	r.once.Do(func() {
		r.sysAddr, r.sysErr = discoverSystemServers(ctx)
	})
	return r.sysAddr, r.sysErr
}

func (r *Recursive) doQuery(ctx context.Context, q dns.Question, servers nsSet, trace *Trace, recurse bool) queryResult {
	result := queryResult{Question: q}

	if err := servers.Err(); err != nil {
		result.Error = fmt.Errorf("%s %s: name server unavailable: %w",
			dns.TypeToString[q.Qtype], q.Name, err)
		return result
	}

	addrs := servers.Addrs()
	if len(addrs) == 0 {
		result.Error = ErrNoNameServers
		return result
	}

	qtypeName := dns.TypeToString[q.Qtype]

	for _, addr := range addrs {
		if cached, ok := r.cache.Lookup(q, addr); ok {
			result.Response = cached
			result.ServerAddr = addr
			return result
		}

		timeout := r.opts.TimeoutPolicy(qtypeName, q.Name, addr)
		qctx, cancel := boundedTimeout(ctx, timeout)

		qc, err := r.pool.acquire(qctx)
		if err != nil {
			cancel()
			result.Error = err
			return result
		}

		m := new(dns.Msg)
		m.Question = []dns.Question{q}
		m.RecursionDesired = recurse

		resp, rtt, err := qc.client.ExchangeContext(qctx, m, addr)
		r.pool.release(qc)
		cancel()

		trace.add(q, addr, rtt, resp, err)

		if err != nil {
			result.Error = err
			continue
		}
		if resp.Rcode == dns.RcodeServerFailure {
			continue
		}

		result.Response = resp
		result.ServerAddr = addr
		result.RTT = rtt

		if ttl := r.opts.CachePolicy(resp); ttl > 0 {
			r.cache.Update(q, addr, resp, ttl)
		}

		return result
	}

	result.Error = ErrNoNameServers
	return result
}
