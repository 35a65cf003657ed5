// Package dynamic implements the core of a dynamic backend director for an
// HTTP reverse-proxy/cache host: Director, Domain, Service Domain and the
// event hooks that wire them into the host's configuration lifecycle.
package dynamic

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dynamicvmod/dynamic/config"
	"github.com/dynamicvmod/dynamic/registry"
	"github.com/dynamicvmod/dynamic/resolver"
)

type hostPort struct {
	host string
	port int
}

// Director is the public entry point of spec.md §4.5, routing
// .backend(host,port) or .service(name) to a Domain or Service Domain,
// creating it on first use.
type Director struct {
	name string
	vcl  string
	cfg  config.Resolved

	resolverAdapter resolver.Adapter
	registry        *registry.Registry
	events          *eventLogger

	debugFlag int32 // atomic bool

	mu       sync.Mutex
	cooling  bool
	domains  map[hostPort]*Domain
	services map[string]*ServiceDomain
}

// NewDirector constructs a Director from a validated config.Resolved. reg is
// the Backend Registry for this Director's sharing scope (process-wide for
// backend.ScopeDirector, owned per-Director for backend.ScopeHost, per
// spec.md §9 Design Notes). logger may be nil, in which case DefaultLogger
// is used.
func NewDirector(name, vcl string, cfg config.Resolved, reg *registry.Registry, logger Logger) *Director {
	adapter := cfg.Resolver
	if adapter == nil {
		adapter = &resolver.System{}
	}

	return &Director{
		name:            name,
		vcl:             vcl,
		cfg:             cfg,
		resolverAdapter: adapter,
		registry:        reg,
		events:          newEventLogger(logger, vcl),
		domains:         map[hostPort]*Domain{},
		services:        map[string]*ServiceDomain{},
	}
}

// Debug toggles debug event emission (spec.md §4.5).
func (d *Director) Debug(on bool) {
	v := int32(0)
	if on {
		v = 1
	}
	atomic.StoreInt32(&d.debugFlag, v)
}

func (d *Director) debugEnabled() bool {
	return atomic.LoadInt32(&d.debugFlag) != 0
}

// Backend implements spec.md §4.5's .backend(host,port): if host is empty,
// requestHost (the in-flight request's Host header, supplied by the host
// environment) is used; if port is zero, the director's configured port is
// used.
func (d *Director) Backend(host string, port int, requestHost string) (*registry.Ref, error) {
	if host == "" {
		host = requestHost
	}
	if host == "" {
		return nil, configErr("backend: no host available")
	}
	if port == 0 {
		port = d.cfg.PortNum
	}

	dom, err := d.domainFor(host, port)
	if err != nil {
		return nil, err
	}
	return dom.Pick()
}

// Service implements spec.md §4.5's .service(name): requires a non-empty
// name and an SRV-capable resolver.
func (d *Director) Service(name string) (*registry.Ref, error) {
	if name == "" {
		return nil, configErr("service: name required")
	}
	if !d.resolverAdapter.SupportsSRV() {
		return nil, ErrUnsupportedOperation
	}

	sd, err := d.serviceFor(name)
	if err != nil {
		return nil, err
	}
	return sd.Pick()
}

func (d *Director) domainFor(host string, port int) (*Domain, error) {
	key := hostPort{host, port}

	d.mu.Lock()
	defer d.mu.Unlock()

	if dom, ok := d.domains[key]; ok {
		return dom, nil
	}
	if d.cooling {
		return nil, configErr("director is cooling: no new domains")
	}

	dom := newDomain(d, host, port)
	d.domains[key] = dom
	go dom.run()
	return dom, nil
}

func (d *Director) serviceFor(name string) (*ServiceDomain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if sd, ok := d.services[name]; ok {
		return sd, nil
	}
	if d.cooling {
		return nil, configErr("director is cooling: no new service domains")
	}

	sd := newServiceDomain(d, name)
	d.services[name] = sd
	go sd.run()
	return sd, nil
}

func (d *Director) unlinkDomain(host string, port int) {
	d.mu.Lock()
	delete(d.domains, hostPort{host, port})
	d.mu.Unlock()
}

func (d *Director) unlinkService(name string) {
	d.mu.Lock()
	delete(d.services, name)
	d.mu.Unlock()
}

// Warm starts worker goroutines that should already be running. Domain
// workers are in fact started lazily at creation time, so Warm is
// idempotent and does nothing - matching spec.md §4.5's "start worker
// threads that should already be running (idempotent)".
func (d *Director) Warm() {}

// Cool stops accepting new Domains/Service Domains and begins quiescing the
// existing ones, per spec.md §4.5. It does not wait for them to finish;
// Discard does.
func (d *Director) Cool() {
	d.mu.Lock()
	d.cooling = true
	doms := make([]*Domain, 0, len(d.domains))
	for _, dom := range d.domains {
		doms = append(doms, dom)
	}
	sds := make([]*ServiceDomain, 0, len(d.services))
	for _, sd := range d.services {
		sds = append(sds, sd)
	}
	d.mu.Unlock()

	for _, dom := range doms {
		dom.Stop()
	}
	for _, sd := range sds {
		sd.Stop()
	}
}

// Discard waits for every Domain and Service Domain to reach Done, then
// releases the director. Per spec.md §5 "Config discard waits (no timeout
// by design - cool must precede discard)", this call is unbounded; callers
// must Cool first.
func (d *Director) Discard() error {
	d.mu.Lock()
	doms := make([]*Domain, 0, len(d.domains))
	for _, dom := range d.domains {
		doms = append(doms, dom)
	}
	sds := make([]*ServiceDomain, 0, len(d.services))
	for _, sd := range d.services {
		sds = append(sds, sd)
	}
	d.mu.Unlock()

	var g errgroup.Group
	for _, dom := range doms {
		dom := dom
		g.Go(func() error {
			dom.Stop()
			<-dom.Done()
			return nil
		})
	}
	for _, sd := range sds {
		sd := sd
		g.Go(func() error {
			sd.Stop()
			<-sd.Done()
			return nil
		})
	}
	return g.Wait()
}

func configErr(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrConfiguration)
}
