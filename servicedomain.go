package dynamic

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dynamicvmod/dynamic/registry"
	"github.com/dynamicvmod/dynamic/resolver"
)

// ServiceDomain overlays Domain for SRV records (spec.md §4.4). It owns a
// resolution loop identical in shape to Domain's, but its "Address Set" is
// a set of child Domains (owned by the parent Director's regular (host,port)
// map - see spec.md §9 "Back-references from Service Domain to children.
// This is a relation+lookup, not ownership") plus their SRV priority/weight
// metadata.
type ServiceDomain struct {
	director *Director
	name     string

	mu       sync.Mutex
	children map[hostPort]*Domain
	meta     map[hostPort]srvMeta

	lastUse int64

	readyOnce sync.Once
	ready     chan struct{}
	firstErr  error

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

type srvMeta struct {
	priority uint16
	weight   uint16
}

func newServiceDomain(d *Director, name string) *ServiceDomain {
	sd := &ServiceDomain{
		director: d,
		name:     name,
		children: map[hostPort]*Domain{},
		meta:     map[hostPort]srvMeta{},
		ready:    make(chan struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	sd.touch()
	return sd
}

func (sd *ServiceDomain) nameTail() string { return sd.name }

func (sd *ServiceDomain) touch() {
	atomic.StoreInt64(&sd.lastUse, time.Now().UnixNano())
}

func (sd *ServiceDomain) lastUseTime() time.Time {
	return time.Unix(0, atomic.LoadInt64(&sd.lastUse))
}

func (sd *ServiceDomain) Done() <-chan struct{} { return sd.doneCh }

func (sd *ServiceDomain) Stop() {
	sd.stopOnce.Do(func() {
		close(sd.stopCh)
		sd.cancelMu.Lock()
		if sd.cancel != nil {
			sd.cancel()
		}
		sd.cancelMu.Unlock()
	})
}

func (sd *ServiceDomain) run() {
	defer close(sd.doneCh)

	state := stateCold
	for {
		select {
		case <-sd.stopCh:
			state = stateExiting
		default:
		}

		switch state {
		case stateCold:
			res, err := sd.resolveOnce()
			warm := false
			if err == nil {
				sd.reconcile(res)
				warm = true
			} else {
				sd.director.events.resolverFailure(sd.director.name, sd.nameTail(), err)
			}
			sd.signalReady(err)
			if warm {
				state = stateWarm
			}
			if !sd.sleep(sd.director.cfg.TTL) {
				state = stateExiting
			}

		case stateWarm:
			if time.Since(sd.lastUseTime()) > sd.director.cfg.DomainUsageTimeout {
				sd.director.events.timeout(sd.director.name, sd.nameTail())
				state = stateExiting
				continue
			}

			res, err := sd.resolveOnce()
			if err != nil {
				sd.director.events.resolverFailure(sd.director.name, sd.nameTail(), err)
			} else {
				sd.reconcile(res)
			}
			if !sd.sleep(sd.director.cfg.TTL) {
				state = stateExiting
			}

		case stateExiting:
			sd.director.events.deleted(sd.director.name, sd.nameTail())
			sd.director.unlinkService(sd.name)
			return
		}
	}
}

func (sd *ServiceDomain) resolveOnce() (result srvResult, err error) {
	ctx, cancel := context.WithCancel(context.Background())
	sd.cancelMu.Lock()
	sd.cancel = cancel
	sd.cancelMu.Unlock()
	defer func() {
		sd.cancelMu.Lock()
		sd.cancel = nil
		sd.cancelMu.Unlock()
		cancel()
	}()

	res, err := sd.director.resolverAdapter.ResolveSRV(ctx, sd.name)
	if err != nil {
		return srvResult{}, err
	}
	return srvResult{srv: res.SRV}, nil
}

type srvResult struct {
	srv []resolver.SRVRecord
}

func (sd *ServiceDomain) signalReady(err error) {
	sd.mu.Lock()
	sd.firstErr = err
	sd.mu.Unlock()
	sd.readyOnce.Do(func() { close(sd.ready) })
}

func (sd *ServiceDomain) sleep(ttl time.Duration) bool {
	if ttl < 0 {
		ttl = 0
	}
	timer := time.NewTimer(ttl)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-sd.stopCh:
		return false
	}
}

// reconcile implements spec.md §4.4's "Resolution": ensure a child Domain
// exists for every (target-host, target-port) in the response, dropping
// metadata for children whose target no longer appears. The underlying
// Domain is not stopped when dropped - it remains in the Director's regular
// map and idles out on its own schedule if nothing else references it.
func (sd *ServiceDomain) reconcile(res srvResult) {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	newMeta := make(map[hostPort]srvMeta, len(res.srv))
	for _, s := range res.srv {
		key := hostPort{host: s.Target, port: s.Port}
		newMeta[key] = srvMeta{priority: s.Priority, weight: s.Weight}

		if _, ok := sd.children[key]; !ok {
			dom, err := sd.director.domainFor(s.Target, s.Port)
			if err == nil {
				sd.children[key] = dom
			}
		}
	}

	for key := range sd.children {
		if _, ok := newMeta[key]; !ok {
			delete(sd.children, key)
		}
	}
	sd.meta = newMeta
}

type childEntry struct {
	key    hostPort
	dom    *Domain
	weight uint16
}

// Pick implements spec.md §4.4's selection: among children whose current
// pick() can return a healthy backend, restrict to the numerically smallest
// SRV priority tier, choose one at random weighted by SRV weight, and ask
// it for a backend; if that child's pick fails, re-sample without it,
// moving to the next tier if the current one empties.
func (sd *ServiceDomain) Pick() (*registry.Ref, error) {
	sd.touch()
	if err := sd.awaitFirstLookup(); err != nil {
		return nil, err
	}

	tiers := sd.tiers()
	if len(tiers) == 0 {
		sd.mu.Lock()
		firstErr := sd.firstErr
		sd.mu.Unlock()
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, ErrNoHealthyBackend
	}
	for _, tier := range tiers {
		entries := tier
		for len(entries) > 0 {
			idx := weightedPick(entries)
			chosen := entries[idx]
			ref, err := chosen.dom.Pick()
			if err == nil {
				return ref, nil
			}
			entries = append(append([]childEntry{}, entries[:idx]...), entries[idx+1:]...)
		}
	}
	return nil, ErrNoHealthyBackend
}

func (sd *ServiceDomain) awaitFirstLookup() error {
	select {
	case <-sd.ready:
		return nil
	default:
	}

	timeout := sd.director.cfg.FirstLookupTimeout
	if timeout <= 0 {
		return ErrColdTimeout
	}
	select {
	case <-sd.ready:
		return nil
	case <-time.After(timeout):
		select {
		case <-sd.ready:
			return nil
		default:
			return ErrColdTimeout
		}
	}
}

// tiers groups live children by ascending SRV priority.
func (sd *ServiceDomain) tiers() [][]childEntry {
	sd.mu.Lock()
	byPriority := map[uint16][]childEntry{}
	for key, dom := range sd.children {
		m := sd.meta[key]
		byPriority[m.priority] = append(byPriority[m.priority], childEntry{key: key, dom: dom, weight: m.weight})
	}
	sd.mu.Unlock()

	priorities := make([]uint16, 0, len(byPriority))
	for p := range byPriority {
		priorities = append(priorities, p)
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })

	out := make([][]childEntry, 0, len(priorities))
	for _, p := range priorities {
		out = append(out, byPriority[p])
	}
	return out
}

// weightedPick selects an index from entries per RFC 2782 weighted
// selection: weight 0 is chosen only when no positive-weight peer exists in
// the tier.
func weightedPick(entries []childEntry) int {
	var positive []int
	for i, e := range entries {
		if e.weight > 0 {
			positive = append(positive, i)
		}
	}
	pool := positive
	if len(pool) == 0 {
		pool = make([]int, len(entries))
		for i := range entries {
			pool[i] = i
		}
	}

	total := 0
	for _, i := range pool {
		total += int(entries[i].weight)
	}
	if total == 0 {
		return pool[randIntn(len(pool))]
	}

	r := randIntn(total)
	cum := 0
	for _, i := range pool {
		cum += int(entries[i].weight)
		if r < cum {
			return i
		}
	}
	return pool[len(pool)-1]
}
