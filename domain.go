package dynamic

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dynamicvmod/dynamic/backend"
	"github.com/dynamicvmod/dynamic/config"
	"github.com/dynamicvmod/dynamic/registry"
	"github.com/dynamicvmod/dynamic/resolver"
)

type domainState int32

const (
	stateCold domainState = iota
	stateWarm
	stateExiting
	stateDone
)

// Domain is the per-(host,port) unit of spec.md §4.3: it owns a resolution
// loop goroutine, a published Address Set, and references into the
// Backend Registry. The worker loop is started once, from Director.domainFor,
// the first time a (host,port) pair is seen.
type Domain struct {
	director *Director
	host     string
	port     int

	mu     sync.Mutex
	set    *addressSet
	cursor uint64

	lastUse int64 // unix nanoseconds, atomic

	readyOnce sync.Once
	ready     chan struct{}
	firstErr  error

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

func newDomain(d *Director, host string, port int) *Domain {
	dom := &Domain{
		director: d,
		host:     host,
		port:     port,
		ready:    make(chan struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	dom.touch()
	return dom
}

func (d *Domain) nameTail() string {
	return fmt.Sprintf("%s:%d", d.host, d.port)
}

func (d *Domain) touch() {
	atomic.StoreInt64(&d.lastUse, time.Now().UnixNano())
}

func (d *Domain) lastUseTime() time.Time {
	return time.Unix(0, atomic.LoadInt64(&d.lastUse))
}

// Done reports when the worker has fully exited, per spec.md §4.5's
// discard hook: "wait for all Domains to reach Done."
func (d *Domain) Done() <-chan struct{} { return d.doneCh }

// Stop signals the worker to exit at its next wake-up and cancels any
// in-flight resolve, per spec.md §5 "a signalable condition used by stop()
// to shorten the sleep." Calling Stop twice is equivalent to calling it
// once.
func (d *Domain) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		d.cancelMu.Lock()
		if d.cancel != nil {
			d.cancel()
		}
		d.cancelMu.Unlock()
	})
}

// Pick implements spec.md §4.3's pick(): update last-use, wait out a cold
// Domain up to first_lookup_timeout, then advance the round-robin cursor
// and return the next eligible member.
func (d *Domain) Pick() (*registry.Ref, error) {
	d.touch()

	if err := d.awaitFirstLookup(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	set := d.set
	firstErr := d.firstErr
	d.mu.Unlock()

	if set.len() == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, ErrNoHealthyBackend
	}

	n := uint64(len(set.keys))
	start := atomic.AddUint64(&d.cursor, 1) - 1
	for i := uint64(0); i < n; i++ {
		key := set.keys[(start+i)%n]
		ref := set.refs[key]
		if ref.Object().Eligible() {
			return ref, nil
		}
	}
	return nil, ErrNoHealthyBackend
}

func (d *Domain) awaitFirstLookup() error {
	select {
	case <-d.ready:
		return nil
	default:
	}

	timeout := d.director.cfg.FirstLookupTimeout
	if timeout <= 0 {
		return ErrColdTimeout
	}

	select {
	case <-d.ready:
		return nil
	case <-time.After(timeout):
		select {
		case <-d.ready:
			return nil
		default:
			return ErrColdTimeout
		}
	}
}

func (d *Domain) signalReady(err error) {
	d.mu.Lock()
	d.firstErr = err
	d.mu.Unlock()
	d.readyOnce.Do(func() { close(d.ready) })
}

// run is the worker loop of spec.md §4.3: Cold -> Warm -> Exiting -> Done.
// "Stale" serving (keeping the old Address Set after a resolve failure from
// Warm) is behavior within the Warm state, not a separate transition.
func (d *Domain) run() {
	defer close(d.doneCh)

	state := stateCold
	for {
		select {
		case <-d.stopCh:
			state = stateExiting
		default:
		}

		switch state {
		case stateCold:
			res, err := d.resolveOnce()
			warm := false
			if err == nil {
				if d.reconcile(res) {
					warm = true
				} else {
					err = ErrEmptyAddressSet
				}
			} else {
				d.director.events.resolverFailure(d.director.name, d.nameTail(), err)
			}
			d.signalReady(err)
			if warm {
				state = stateWarm
			}
			if !d.sleep(d.ttlFor(res, err)) {
				state = stateExiting
			}

		case stateWarm:
			if time.Since(d.lastUseTime()) > d.director.cfg.DomainUsageTimeout {
				d.director.events.timeout(d.director.name, d.nameTail())
				state = stateExiting
				continue
			}

			res, err := d.resolveOnce()
			if err != nil {
				d.director.events.resolverFailure(d.director.name, d.nameTail(), err)
			} else if !d.reconcile(res) {
				err = ErrEmptyAddressSet
			}
			if !d.sleep(d.ttlFor(res, err)) {
				state = stateExiting
			}

		case stateExiting:
			d.releaseAll()
			d.director.events.deleted(d.director.name, d.nameTail())
			d.director.unlinkDomain(d.host, d.port)
			state = stateDone
			return
		}
	}
}

func (d *Domain) resolveOnce() (resolver.Result, error) {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancelMu.Lock()
	d.cancel = cancel
	d.cancelMu.Unlock()
	defer func() {
		d.cancelMu.Lock()
		d.cancel = nil
		d.cancelMu.Unlock()
		cancel()
	}()

	return d.director.resolverAdapter.Resolve(ctx, d.host, d.port)
}

// ttlFor implements spec.md §4.3's TTL selection, governed by ttl_from.
func (d *Domain) ttlFor(res resolver.Result, err error) time.Duration {
	cfgTTL := d.director.cfg.TTL
	if err != nil {
		return cfgTTL
	}
	switch d.director.cfg.TTLFrom {
	case config.TTLFromDNS:
		if res.HasTTL {
			return res.TTL
		}
		return cfgTTL
	case config.TTLFromMin:
		if res.HasTTL && res.TTL < cfgTTL {
			return res.TTL
		}
		return cfgTTL
	case config.TTLFromMax:
		if res.HasTTL && res.TTL > cfgTTL {
			return res.TTL
		}
		return cfgTTL
	default:
		return cfgTTL
	}
}

// sleep waits out ttl (clamped to non-negative, so a TTL shorter than
// resolve latency never sleeps negative time) or returns early, false, if
// stopped.
func (d *Domain) sleep(ttl time.Duration) bool {
	if ttl < 0 {
		ttl = 0
	}
	timer := time.NewTimer(ttl)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-d.stopCh:
		return false
	}
}

func (d *Domain) attrs() backend.Attrs {
	cfg := d.director.cfg
	return backend.Attrs{
		ConnectTimeout:      cfg.ConnectTimeout,
		FirstByteTimeout:    cfg.FirstByteTimeout,
		BetweenBytesTimeout: cfg.BetweenBytesTimeout,
		MaxConnections:      cfg.MaxConnections,
		ProxyHeaderVersion:  cfg.ProxyHeaderVersion,
		HostHeader:          cfg.HostHeader,
		Probe:               cfg.Probe,
	}
}

// reconcile implements spec.md §4.3's reconciliation algorithm. It reports
// whether the resulting Address Set is non-empty; a false return means the
// resolve is to be treated as empty-address-set for propagation purposes
// (the old set, if any, is left untouched).
func (d *Domain) reconcile(res resolver.Result) bool {
	whitelist := d.director.cfg.Whitelist
	scope := d.director.cfg.Share

	var newKeys []backend.Key
	seen := map[backend.Key]bool{}
	for _, a := range res.Addrs {
		if !whitelist.Allow(a.Addr) {
			d.director.events.whitelistMismatch(d.director.name, d.nameTail(), a.Addr)
			continue
		}
		key := backend.Key{Host: d.host, Addr: a.Addr, Port: a.Port}.WithScope(scope)
		if seen[key] {
			continue
		}
		seen[key] = true
		newKeys = append(newKeys, key)
	}

	if len(newKeys) == 0 {
		if len(res.Addrs) == 0 {
			d.director.events.emptyAddressSet(d.director.name, d.nameTail())
		}
		return false
	}

	d.mu.Lock()
	old := d.set
	d.mu.Unlock()

	var oldKeys []backend.Key
	oldKeySet := map[backend.Key]bool{}
	if old != nil {
		oldKeys = old.keys
		for _, k := range oldKeys {
			oldKeySet[k] = true
		}
	}
	newKeySet := make(map[backend.Key]bool, len(newKeys))
	for _, k := range newKeys {
		newKeySet[k] = true
	}

	merged := make([]backend.Key, 0, len(newKeys))
	refs := make(map[backend.Key]*registry.Ref, len(newKeys))

	// Survivors keep their insertion order and their existing Ref.
	for _, k := range oldKeys {
		if newKeySet[k] {
			merged = append(merged, k)
			refs[k] = old.refs[k]
		}
	}
	// Additions are appended at the end, acquiring a fresh Ref each.
	for _, k := range newKeys {
		if !oldKeySet[k] {
			ref := d.director.registry.Acquire(k, d.attrs())
			merged = append(merged, k)
			refs[k] = ref
			if d.director.debugEnabled() {
				d.director.events.added(d.director.name, d.nameTail(), k.String())
			}
		}
	}

	if old != nil && sameKeys(old.keys, merged) {
		return true
	}

	d.mu.Lock()
	d.set = &addressSet{keys: merged, refs: refs}
	d.mu.Unlock()

	if old != nil {
		for _, k := range oldKeys {
			if !newKeySet[k] {
				d.director.registry.Release(old.refs[k])
				if d.director.debugEnabled() {
					d.director.events.deleted(d.director.name, d.nameTail())
				}
			}
		}
	}

	return true
}

func (d *Domain) releaseAll() {
	d.mu.Lock()
	set := d.set
	d.set = nil
	d.mu.Unlock()
	if set == nil {
		return
	}
	for _, k := range set.keys {
		d.director.registry.Release(set.refs[k])
	}
}
