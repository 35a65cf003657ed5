package dynamic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynamicvmod/dynamic/backend"
	"github.com/dynamicvmod/dynamic/config"
	"github.com/dynamicvmod/dynamic/registry"
	"github.com/dynamicvmod/dynamic/resolver"
	"github.com/dynamicvmod/dynamic/resolvertest"
)

func TestCoolThenDiscardWaitsForAllWorkers(t *testing.T) {
	fake := resolvertest.New()
	scriptHost(fake, "a.example", "10.0.0.1", 80)
	scriptHost(fake, "b.example", "10.0.0.2", 80)

	d := newTestDirector(t, fake, nil)
	_, err := d.Backend("a.example", 0, "")
	require.NoError(t, err)
	_, err = d.Backend("b.example", 0, "")
	require.NoError(t, err)

	d.Cool()

	done := make(chan error, 1)
	go func() { done <- d.Discard() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Discard did not return after Cool stopped every worker")
	}
}

func TestCoolRejectsNewDomains(t *testing.T) {
	fake := resolvertest.New()
	d := newTestDirector(t, fake, nil)
	d.Cool()

	_, err := d.Backend("anything.example", 0, "")
	assert.ErrorIs(t, err, ErrConfiguration)

	require.NoError(t, d.Discard())
}

func TestWarmIsIdempotent(t *testing.T) {
	fake := resolvertest.New()
	d := newTestDirector(t, fake, nil)
	d.Warm()
	d.Warm()
	require.NoError(t, d.Discard())
}

func TestBackendRequiresAHost(t *testing.T) {
	fake := resolvertest.New()
	d := newTestDirector(t, fake, nil)
	_, err := d.Backend("", 0, "")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestBackendFallsBackToRequestHost(t *testing.T) {
	fake := resolvertest.New()
	scriptHost(fake, "fallback.example", "10.0.0.9", 80)
	d := newTestDirector(t, fake, nil)

	ref, err := d.Backend("", 0, "fallback.example")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", ref.Object().Key.Addr)
}

// Director-level complement to registry_test.go's Acquire/Release
// coverage: two distinct Domains sharing one ScopeDirector Registry resolve
// to the same refcounted Backend Object when they observe the same address.
func TestDirectorScopeSharesBackendObjectsAcrossDomains(t *testing.T) {
	fake := resolvertest.New()
	fake.Script("a.example", resolvertest.Answer{
		Result: resolver.Result{Addrs: []resolver.AddrRecord{{Addr: "10.0.0.1", Port: 80}}},
	})
	fake.Script("b.example", resolvertest.Answer{
		Result: resolver.Result{Addrs: []resolver.AddrRecord{{Addr: "10.0.0.1", Port: 80}}},
	})

	p := config.Defaults()
	p.Resolver = fake
	p.Share = backend.ScopeDirector
	resolved, err := p.Build()
	require.NoError(t, err)

	reg := registry.New(resolved.Share, "d", nil)
	d := NewDirector("d", "vcl", resolved, reg, nil)

	refA, err := d.Backend("a.example", 0, "")
	require.NoError(t, err)
	refB, err := d.Backend("b.example", 0, "")
	require.NoError(t, err)

	assert.Same(t, refA.Object(), refB.Object())
	assert.Equal(t, 2, reg.RefCount(refA.Object().Key))
}

func TestDebugTogglesWithoutPanicking(t *testing.T) {
	fake := resolvertest.New()
	d := newTestDirector(t, fake, nil)
	d.Debug(true)
	assert.True(t, d.debugEnabled())
	d.Debug(false)
	assert.False(t, d.debugEnabled())
}
