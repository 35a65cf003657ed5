package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynamicvmod/dynamic/backend"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	stats := backend.NewMapStatsSink()
	reg := New(backend.ScopeDirector, "d", stats)

	key := backend.Key{Addr: "10.0.0.1", Port: 80}
	ref := reg.Acquire(key, backend.Attrs{})
	require.NotNil(t, ref)
	assert.Equal(t, 1, reg.Len())
	assert.True(t, stats.Registered(backend.StatsName("d", key.WithScope(backend.ScopeDirector))))

	reg.Release(ref)
	assert.Equal(t, 0, reg.Len())
	assert.False(t, stats.Registered(backend.StatsName("d", key.WithScope(backend.ScopeDirector))))
}

func TestAcquireSharesUnderDirectorScope(t *testing.T) {
	reg := New(backend.ScopeDirector, "d", nil)

	key1 := backend.Key{Host: "a.example.com", Addr: "10.0.0.1", Port: 80}
	key2 := backend.Key{Host: "b.example.com", Addr: "10.0.0.1", Port: 80}

	ref1 := reg.Acquire(key1, backend.Attrs{})
	ref2 := reg.Acquire(key2, backend.Attrs{})

	assert.Same(t, ref1.Object(), ref2.Object())
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 2, reg.RefCount(backend.Key{Addr: "10.0.0.1", Port: 80}))

	reg.Release(ref1)
	assert.Equal(t, 1, reg.Len())
	reg.Release(ref2)
	assert.Equal(t, 0, reg.Len())
}

func TestAcquireSeparatesUnderHostScope(t *testing.T) {
	reg := New(backend.ScopeHost, "d", nil)

	key1 := backend.Key{Host: "a.example.com", Addr: "10.0.0.1", Port: 80}
	key2 := backend.Key{Host: "b.example.com", Addr: "10.0.0.1", Port: 80}

	ref1 := reg.Acquire(key1, backend.Attrs{})
	ref2 := reg.Acquire(key2, backend.Attrs{})

	assert.NotSame(t, ref1.Object(), ref2.Object())
	assert.Equal(t, 2, reg.Len())
}

func TestReleaseIsIdempotentOnZeroValue(t *testing.T) {
	reg := New(backend.ScopeDirector, "d", nil)
	reg.Release(nil)
	assert.Equal(t, 0, reg.Len())
}

func TestProbeClonedPerAcquire(t *testing.T) {
	reg := New(backend.ScopeHost, "d", nil)
	tmpl := &recordingProbeTemplate{}

	key := backend.Key{Host: "a.example.com", Addr: "10.0.0.1", Port: 80}
	ref := reg.Acquire(key, backend.Attrs{Probe: tmpl})
	require.NotNil(t, ref.Object().Probe)
	assert.Equal(t, "a.example.com", tmpl.lastHost)
}

type recordingProbeTemplate struct {
	lastHost string
}

func (t *recordingProbeTemplate) Clone(hostHeader string) backend.ProbeHandle {
	t.lastHost = hostHeader
	return recordingProbeHandle{}
}

type recordingProbeHandle struct{}

func (recordingProbeHandle) Healthy() bool { return true }
