package dynamic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynamicvmod/dynamic/config"
	"github.com/dynamicvmod/dynamic/resolver"
	"github.com/dynamicvmod/dynamic/resolvertest"
)

func scriptHost(fake *resolvertest.Fake, host, addr string, port int) {
	fake.Script(host, resolvertest.Answer{
		Result: resolver.Result{Addrs: []resolver.AddrRecord{{Addr: addr, Port: port}}},
	})
}

// Scenario 4/5: SRV resolution picks from the lowest priority tier and
// only falls through to a higher-numbered tier when the lower one has no
// healthy member.
func TestServiceDomainPrefersLowerPriorityTier(t *testing.T) {
	fake := resolvertest.New()
	fake.ScriptSRV("svc._tcp.example", resolvertest.Answer{
		Result: resolver.Result{SRV: []resolver.SRVRecord{
			{Priority: 0, Weight: 1, Target: "primary.internal", Port: 9000},
			{Priority: 1, Weight: 1, Target: "backup.internal", Port: 9000},
		}},
	})
	scriptHost(fake, "primary.internal", "10.0.0.1", 9000)
	scriptHost(fake, "backup.internal", "10.0.0.2", 9000)

	d := newTestDirector(t, fake, nil)
	ref, err := d.Service("svc._tcp.example")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", ref.Object().Key.Addr)
}

func TestServiceDomainFallsThroughEmptyTier(t *testing.T) {
	fake := resolvertest.New()
	fake.ScriptSRV("svc._tcp.example", resolvertest.Answer{
		Result: resolver.Result{SRV: []resolver.SRVRecord{
			{Priority: 0, Weight: 1, Target: "primary.internal", Port: 9000},
			{Priority: 1, Weight: 1, Target: "backup.internal", Port: 9000},
		}},
	})
	// primary.internal never resolves to anything: its child Domain stays
	// empty, so Pick must fall through to the backup tier.
	scriptHost(fake, "backup.internal", "10.0.0.2", 9000)

	d := newTestDirector(t, fake, nil)
	ref, err := d.Service("svc._tcp.example")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", ref.Object().Key.Addr)
}

func TestServiceRequiresSRVCapableResolver(t *testing.T) {
	fake := resolvertest.New()
	fake.NoSRV = true

	d := newTestDirector(t, fake, nil)
	_, err := d.Service("svc._tcp.example")
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

// weightedPick must choose weight-0 entries only when no positive-weight
// peer exists in the tier, and otherwise distribute in proportion to
// weight - spec.md §4.4's RFC 2782 weighted selection.
func TestWeightedPickRatioApproximatesWeights(t *testing.T) {
	entries := []childEntry{
		{key: hostPort{host: "a"}, weight: 1},
		{key: hostPort{host: "b"}, weight: 3},
	}

	counts := map[string]int{}
	const trials = 4000
	for i := 0; i < trials; i++ {
		idx := weightedPick(entries)
		counts[entries[idx].key.host]++
	}

	ratio := float64(counts["b"]) / float64(counts["a"])
	assert.InDelta(t, 3.0, ratio, 0.75, "expected roughly a 1:3 split, got a=%d b=%d", counts["a"], counts["b"])
}

func TestWeightedPickAllZeroWeightIsUniform(t *testing.T) {
	entries := []childEntry{
		{key: hostPort{host: "a"}, weight: 0},
		{key: hostPort{host: "b"}, weight: 0},
	}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		idx := weightedPick(entries)
		seen[entries[idx].key.host] = true
	}
	assert.Len(t, seen, 2, "both zero-weight entries should be reachable")
}

func TestServiceDomainDroppedTargetIdlesInsteadOfStopping(t *testing.T) {
	fake := resolvertest.New()
	fake.ScriptSRV("svc._tcp.example",
		resolvertest.Answer{Result: resolver.Result{SRV: []resolver.SRVRecord{
			{Priority: 0, Weight: 1, Target: "primary.internal", Port: 9000},
		}}},
		resolvertest.Answer{Result: resolver.Result{}},
	)
	scriptHost(fake, "primary.internal", "10.0.0.1", 9000)

	d := newTestDirector(t, fake, func(p *config.Params) { p.TTL = 10 * time.Millisecond })
	_, err := d.Service("svc._tcp.example")
	require.NoError(t, err)

	waitFor(t, time.Second, func() bool {
		return fake.CallCount("srv", "svc._tcp.example") >= 2
	})
	time.Sleep(20 * time.Millisecond)

	// The child Domain stays registered under the Director's own (host,
	// port) map - dropping it from the SRV response does not Stop it.
	dom, err := d.domainFor("primary.internal", 9000)
	require.NoError(t, err)
	select {
	case <-dom.Done():
		t.Fatal("child Domain must not be stopped merely because its SRV metadata was dropped")
	default:
	}
}
