package resolver

import (
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTimeoutPolicyPrivateVsPublic(t *testing.T) {
	policy := DefaultTimeoutPolicy()

	assert.Equal(t, 100*time.Millisecond, policy("A", "example.com.", "127.0.0.1:53"))
	assert.Equal(t, time.Second, policy("A", "example.com.", "8.8.8.8:53"))
}

func TestDefaultTimeoutPolicyMalformedAddr(t *testing.T) {
	policy := DefaultTimeoutPolicy()
	assert.Equal(t, time.Second, policy("A", "example.com.", "not-an-addr"))
}

func TestDefaultCachePolicyCachesPublicSuffixDelegation(t *testing.T) {
	policy := DefaultCachePolicy()

	msg := new(dns.Msg)
	msg.Ns = []dns.RR{
		&dns.NS{
			Hdr: dns.RR_Header{Name: "com.", Rrtype: dns.TypeNS, Ttl: 172800},
			Ns:  "a.gtld-servers.net.",
		},
	}

	assert.Equal(t, 172800*time.Second, policy(msg))
}

func TestDefaultCachePolicyIgnoresNonPublicSuffix(t *testing.T) {
	policy := DefaultCachePolicy()

	msg := new(dns.Msg)
	msg.Ns = []dns.RR{
		&dns.NS{
			Hdr: dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeNS, Ttl: 300},
			Ns:  "ns1.example.com.",
		},
	}

	assert.Equal(t, time.Duration(0), policy(msg))
}

func TestDefaultCachePolicyFallsBackToLeafAnswerTTL(t *testing.T) {
	policy := DefaultCachePolicy()

	msg := new(dns.Msg)
	msg.Answer = []dns.RR{
		&dns.A{Hdr: dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeA, Ttl: 60}},
	}

	assert.Equal(t, 60*time.Second, policy(msg), "a leaf answer (no NS delegation) should be cached per the responder's own advice")
}

func TestDefaultCachePolicyNegativeCachesNXDomain(t *testing.T) {
	policy := DefaultCachePolicy()

	msg := new(dns.Msg)
	msg.Rcode = dns.RcodeNameError

	assert.Equal(t, negativeCacheTTL, policy(msg))
}

func TestObeyResponderAdviceNegativeTTLOnNXDomain(t *testing.T) {
	policy := ObeyResponderAdvice(30 * time.Second)

	msg := new(dns.Msg)
	msg.Rcode = dns.RcodeNameError

	assert.Equal(t, 30*time.Second, policy(msg))
}
