package resolver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Trace records every query performed while resolving a single name, for
// debug logging. A Recursive resolver builds one internally for each
// lookup; Resolve and ResolveSRV do not return it to their callers.
type Trace struct {
	Nodes []*TraceNode
}

// TraceNode is one query/response pair.
type TraceNode struct {
	Question dns.Question
	Server   string
	RTT      time.Duration
	Rcode    int
	Error    error
}

func (t *Trace) add(q dns.Question, server string, rtt time.Duration, resp *dns.Msg, err error) {
	n := &TraceNode{Question: q, Server: server, RTT: rtt, Error: err}
	if resp != nil {
		n.Rcode = resp.Rcode
	}
	t.Nodes = append(t.Nodes, n)
}

// Dump renders the trace for human consumption. Lines starting with a
// question mark are queries; lines starting with X are failures.
func (t *Trace) Dump() string {
	buf := &bytes.Buffer{}
	for _, n := range t.Nodes {
		fmt.Fprintf(buf, "? %s %s @%s %vms\n",
			dns.TypeToString[n.Question.Qtype],
			strings.TrimSuffix(n.Question.Name, "."),
			n.Server, n.RTT.Milliseconds())

		if n.Error != nil {
			if errors.Is(n.Error, ErrCircular) {
				io.WriteString(buf, "  X CYCLE\n")
			} else {
				fmt.Fprintf(buf, "  X %v\n", n.Error)
			}
			continue
		}
		if n.Rcode != dns.RcodeSuccess {
			fmt.Fprintf(buf, "  X %s\n", dns.RcodeToString[n.Rcode])
		}
	}
	return buf.String()
}
