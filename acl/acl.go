// Package acl implements spec.md §4.2's whitelist: an ACL filtering
// resolved addresses before they are acquired from the Backend Registry.
// Adapted directly from the teacher's policy.go PrivateNets/mustParseCIDR
// pattern (a list of *net.IPNet consulted with Contains), generalized from
// "is this a private net" to "is this address whitelisted."
package acl

import "net"

// Whitelist evaluates whether a resolved address is acceptable. A nil
// Whitelist accepts everything, matching spec.md §6's "whitelist: ACL
// filtering resolved addresses (none)" default.
type Whitelist struct {
	nets []*net.IPNet
}

// New builds a Whitelist from CIDR strings. It panics on a malformed CIDR,
// matching the teacher's mustParseCIDR - this is configuration-load-time
// data, not runtime input.
func New(cidrs ...string) *Whitelist {
	w := &Whitelist{nets: make([]*net.IPNet, 0, len(cidrs))}
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic("acl: invalid CIDR " + c + ": " + err.Error())
		}
		w.nets = append(w.nets, n)
	}
	return w
}

// Allow reports whether addr (a numeric IP string) passes the whitelist. A
// nil Whitelist, or one with no nets, allows everything.
func (w *Whitelist) Allow(addr string) bool {
	if w == nil || len(w.nets) == 0 {
		return true
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range w.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
