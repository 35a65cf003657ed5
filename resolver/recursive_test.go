package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecursiveAppliesDefaultPolicies(t *testing.T) {
	r := NewRecursive(RecursiveOptions{MaxOutstanding: 4})
	require.NotNil(t, r.opts.TimeoutPolicy)
	require.NotNil(t, r.opts.CachePolicy)
	assert.True(t, r.SupportsSRV())
}

func TestMinTTLTracksSmallestSeen(t *testing.T) {
	d, have := minTTL(0, false, 300)
	assert.True(t, have)
	assert.Equal(t, 300*time.Second, d)

	d, have = minTTL(d, have, 60)
	assert.True(t, have)
	assert.Equal(t, 60*time.Second, d)

	d, have = minTTL(d, have, 600)
	assert.True(t, have)
	assert.Equal(t, 60*time.Second, d, "a larger TTL must not replace the running minimum")
}

func TestDedupAddrsRemovesExactDuplicates(t *testing.T) {
	in := []AddrRecord{
		{Addr: "10.0.0.1", Port: 80},
		{Addr: "10.0.0.1", Port: 80},
		{Addr: "10.0.0.2", Port: 80},
	}
	out := dedupAddrs(in)
	assert.Len(t, out, 2)
}

func TestDedupAddrsKeepsDistinctHostnames(t *testing.T) {
	in := []AddrRecord{
		{Addr: "10.0.0.1", Port: 80, Hostname: "a.example"},
		{Addr: "10.0.0.1", Port: 80, Hostname: "b.example"},
	}
	out := dedupAddrs(in)
	assert.Len(t, out, 2)
}

func TestQueryResultIsDelegationRequiresOnlyNSRecords(t *testing.T) {
	resp := new(dns.Msg)
	resp.Ns = []dns.RR{&dns.NS{Hdr: dns.RR_Header{Name: "example.com."}, Ns: "ns1.example.com."}}

	r := queryResult{Response: resp}
	assert.True(t, r.isDelegation())

	resp.Authoritative = true
	assert.False(t, queryResult{Response: resp}.isDelegation())
}

func TestQueryResultIsDelegationFalseOnMixedRecords(t *testing.T) {
	resp := new(dns.Msg)
	resp.Answer = []dns.RR{&dns.A{Hdr: dns.RR_Header{Name: "example.com."}}}
	resp.Ns = []dns.RR{&dns.NS{Hdr: dns.RR_Header{Name: "example.com."}, Ns: "ns1.example.com."}}

	assert.False(t, queryResult{Response: resp}.isDelegation())
}

func TestQueryResultIsDelegationFalseOnError(t *testing.T) {
	assert.False(t, queryResult{Error: ErrNoNameServers}.isDelegation())
}

func TestCheckNamespaceAllowsEmptyList(t *testing.T) {
	r := &Recursive{opts: RecursiveOptions{}}
	assert.NoError(t, r.checkNamespace())
}

func TestCheckNamespaceAllowsDNSInList(t *testing.T) {
	r := &Recursive{opts: RecursiveOptions{Namespaces: []Namespace{NamespaceLocalNames, NamespaceDNS}}}
	assert.NoError(t, r.checkNamespace())
}

func TestCheckNamespaceRejectsListWithoutDNS(t *testing.T) {
	r := &Recursive{opts: RecursiveOptions{Namespaces: []Namespace{NamespaceNetBIOS, NamespaceMDNS}}}
	assert.Error(t, r.checkNamespace())
}

func TestResolveRejectsWhenDNSNamespaceDisabled(t *testing.T) {
	r := NewRecursive(RecursiveOptions{
		MaxOutstanding: 1,
		Namespaces:     []Namespace{NamespaceNIS},
	})
	_, err := r.Resolve(context.Background(), "example.com", 80)
	assert.Error(t, err)
}
