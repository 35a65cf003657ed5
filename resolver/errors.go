package resolver

import (
	"errors"
	"fmt"
)

// ErrCircular is returned when a chain of CNAME or NS delegations refers back
// to a name already seen during the same resolution. ErrCircular may be
// wrapped and must be tested for with errors.Is.
var ErrCircular = errors.New("circular reference")

// ErrNoNameServers is returned when a query has no candidate name server,
// or exhausts every candidate without receiving a usable response.
var ErrNoNameServers = errors.New("no name servers available")

// ResolveError is returned by Adapter implementations on lookup failure. It
// carries the resolver-specific numeric code alongside the human-readable
// reason, per spec.md's "System resolver ... returns a structured error
// carrying the resolver-specific numeric code and textual reason."
type ResolveError struct {
	Host   string
	Code   int
	Reason string
	Err    error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("getaddrinfo %d (%s)", e.Code, e.Reason)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Well-known codes, modeled loosely on getaddrinfo(3) EAI_* values so log
// lines read the way spec.md's example event ("getaddrinfo <errno> (<reason>)")
// expects.
const (
	CodeNoData    = 1 // name exists, no records of the requested type
	CodeNoName    = 2 // name does not exist
	CodeTemporary = 3 // transient failure, worth retrying next TTL cycle
	CodeOther     = 4
)
