package resolver

import (
	"context"
	"time"

	"github.com/miekg/dns"
)

// queryContext is one reusable slot in a Recursive resolver's context pool,
// spec.md §4.1: "The recursive client pre-allocates parallel contexts. A
// resolve call acquires one; if none is free it blocks."
type queryContext struct {
	client     *dns.Client
	releasedAt time.Time
}

type contextPool struct {
	slots       chan *queryContext
	transport   Transport
	idleTimeout time.Duration
}

func newContextPool(parallel int, transport Transport) *contextPool {
	return newContextPoolWithIdleTimeout(parallel, transport, 0)
}

// newContextPoolWithIdleTimeout additionally recycles a slot's *dns.Client on
// acquire if it has sat idle in the pool longer than idleTimeout, per
// spec.md §4.1's "idle-timeout" knob on the recursive client. idleTimeout<=0
// disables recycling.
func newContextPoolWithIdleTimeout(parallel int, transport Transport, idleTimeout time.Duration) *contextPool {
	if parallel < 1 {
		parallel = 1
	}

	p := &contextPool{
		slots:       make(chan *queryContext, parallel),
		transport:   transport,
		idleTimeout: idleTimeout,
	}
	for i := 0; i < parallel; i++ {
		p.slots <- &queryContext{client: newDNSClient(transport), releasedAt: time.Now()}
	}
	return p
}

func newDNSClient(t Transport) *dns.Client {
	c := &dns.Client{}
	switch t {
	case TransportTCP:
		c.Net = "tcp"
	case TransportTLS:
		c.Net = "tcp-tls"
	default:
		c.Net = "udp"
	}
	return c
}

// acquire blocks until a context is available or ctx is done. A slot that
// has sat idle in the pool longer than idleTimeout gets a fresh *dns.Client
// before being handed out, so a long-lived UDP/TCP socket isn't reused past
// its welcome.
func (p *contextPool) acquire(ctx context.Context) (*queryContext, error) {
	select {
	case qc := <-p.slots:
		if p.idleTimeout > 0 && time.Since(qc.releasedAt) > p.idleTimeout {
			qc.client = newDNSClient(p.transport)
		}
		return qc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *contextPool) release(qc *queryContext) {
	// Guaranteed release on all exit paths, per spec.md §5 "Resolver
	// contexts are acquired and released around a single resolve call with
	// guaranteed release on all exit paths including failure."
	qc.releasedAt = time.Now()
	select {
	case p.slots <- qc:
	default:
		// pool was resized or qc came from elsewhere; never block the
		// releasing goroutine.
	}
}

// boundedTimeout derives a context that times out after d. A non-positive d
// gives a context with no deadline, matching TimeoutPolicy's rule that any
// non-positive duration is understood as an infinite timeout.
func boundedTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
