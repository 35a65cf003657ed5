package resolver

import (
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestTraceDumpSuccessAndFailureLines(t *testing.T) {
	tr := &Trace{}
	q := dns.Question{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}

	ok := new(dns.Msg)
	ok.Rcode = dns.RcodeSuccess
	tr.add(q, "8.8.8.8:53", 5*time.Millisecond, ok, nil)

	fail := new(dns.Msg)
	fail.Rcode = dns.RcodeServerFailure
	tr.add(q, "9.9.9.9:53", 10*time.Millisecond, fail, nil)

	tr.add(q, "10.0.0.1:53", 0, nil, ErrCircular)

	out := tr.Dump()
	assert.Contains(t, out, "? A example.com @8.8.8.8:53")
	assert.Contains(t, out, "X SERVFAIL")
	assert.Contains(t, out, "X CYCLE")
}

func TestTraceDumpWrapsNonCircularError(t *testing.T) {
	tr := &Trace{}
	q := dns.Question{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}
	tr.add(q, "10.0.0.1:53", 0, nil, assert.AnError)

	out := tr.Dump()
	assert.Contains(t, out, assert.AnError.Error())
}
