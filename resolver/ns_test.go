package resolver

import (
	"context"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestHardCodedNSSet(t *testing.T) {
	set := hardCodedNSSet{"198.41.0.4:53", "199.9.14.201:53"}
	assert.NoError(t, set.Err())
	assert.Equal(t, []string{"198.41.0.4:53", "199.9.14.201:53"}, set.Addrs())
}

func TestDelegationSetUsesGlueWhenPresent(t *testing.T) {
	resp := new(dns.Msg)
	resp.Ns = []dns.RR{
		&dns.NS{Hdr: dns.RR_Header{Name: "example.com."}, Ns: "ns1.example.com."},
	}
	resp.Extra = []dns.RR{
		&dns.A{Hdr: dns.RR_Header{Name: "ns1.example.com."}, A: mustParseIP("192.0.2.1")},
	}

	set := delegationSet{ctx: context.Background(), resp: resp, port: "53"}
	assert.Equal(t, []string{"192.0.2.1:53"}, set.Addrs())
}

func TestDelegationSetDedupesAddresses(t *testing.T) {
	resp := new(dns.Msg)
	resp.Ns = []dns.RR{
		&dns.NS{Hdr: dns.RR_Header{Name: "example.com."}, Ns: "ns1.example.com."},
		&dns.NS{Hdr: dns.RR_Header{Name: "example.com."}, Ns: "ns2.example.com."},
	}
	resp.Extra = []dns.RR{
		&dns.A{Hdr: dns.RR_Header{Name: "ns1.example.com."}, A: mustParseIP("192.0.2.1")},
		&dns.A{Hdr: dns.RR_Header{Name: "ns2.example.com."}, A: mustParseIP("192.0.2.1")},
	}

	set := delegationSet{ctx: context.Background(), resp: resp, port: "53"}
	assert.Equal(t, []string{"192.0.2.1:53"}, set.Addrs())
}

func TestDelegationSetNilResponseIsEmpty(t *testing.T) {
	set := delegationSet{ctx: context.Background(), port: "53"}
	assert.Nil(t, set.Addrs())
}

func mustParseIP(s string) net.IP {
	return net.ParseIP(s)
}
