package backend

import "testing"

import "github.com/stretchr/testify/assert"

func TestKeyWithScope(t *testing.T) {
	k := Key{Host: "www.example.com", Addr: "10.0.0.1", Port: 80}

	director := k.WithScope(ScopeDirector)
	assert.Equal(t, "", director.Host)
	assert.Equal(t, "10.0.0.1", director.Addr)

	host := k.WithScope(ScopeHost)
	assert.Equal(t, "www.example.com", host.Host)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "10.0.0.1:80", Key{Addr: "10.0.0.1", Port: 80}.String())
	assert.Equal(t, "www.example.com.10.0.0.1:80",
		Key{Host: "www.example.com", Addr: "10.0.0.1", Port: 80}.String())
}

type fakeProbe struct{ healthy bool }

func (f fakeProbe) Healthy() bool { return f.healthy }

func TestObjectEligible(t *testing.T) {
	noProbe := &Object{}
	assert.True(t, noProbe.Eligible())

	healthy := &Object{Probe: fakeProbe{healthy: true}}
	assert.True(t, healthy.Eligible())

	unhealthy := &Object{Probe: fakeProbe{healthy: false}}
	assert.False(t, unhealthy.Eligible())
}

func TestStatsName(t *testing.T) {
	name := StatsName("mydirector", Key{Addr: "10.0.0.1", Port: 80})
	assert.Equal(t, "mydirector(10.0.0.1:80)", name)
}
