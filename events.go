package dynamic

import (
	"fmt"
	"log"
	"os"
)

// Event is one of the log-line event tokens of spec.md §6.
type Event string

const (
	EventTimeout           Event = "timeout"
	EventDeleted           Event = "deleted"
	EventAdded             Event = "added"
	EventWhitelistMismatch Event = "whitelist mismatch"
	EventEmptyAddressSet   Event = "empty address set"
)

// Logger is the host's logging sink. Printf mirrors the stdlib log.Logger
// signature so *log.Logger satisfies it directly.
type Logger interface {
	Printf(format string, args ...any)
}

// DefaultLogger writes to stderr with stdlib log's standard flags, matching
// the teacher's own bare use of the stdlib log package (ns.go) for this
// concern - no structured-logging library appears anywhere in the retrieved
// pack, so there is nothing else to wire in.
func DefaultLogger() Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}

// eventLogger renders spec.md §6's line format:
// "vmod-dynamic: <vcl> <director> <name-tail> <event> [<extra>]" - every
// record bears the literal token vmod-dynamic so logs stay greppable.
type eventLogger struct {
	logger Logger
	vcl    string
}

func newEventLogger(logger Logger, vcl string) *eventLogger {
	if logger == nil {
		logger = DefaultLogger()
	}
	if vcl == "" {
		vcl = "vcl"
	}
	return &eventLogger{logger: logger, vcl: vcl}
}

func (e *eventLogger) emit(director, nameTail string, event Event, extra string) {
	if extra == "" {
		e.logger.Printf("vmod-dynamic: %s %s %s %s", e.vcl, director, nameTail, event)
		return
	}
	e.logger.Printf("vmod-dynamic: %s %s %s %s %s", e.vcl, director, nameTail, event, extra)
}

func (e *eventLogger) timeout(director, nameTail string) {
	e.emit(director, nameTail, EventTimeout, "")
}

func (e *eventLogger) deleted(director, nameTail string) {
	e.emit(director, nameTail, EventDeleted, "")
}

func (e *eventLogger) added(director, nameTail, key string) {
	e.emit(director, nameTail, EventAdded, key)
}

func (e *eventLogger) whitelistMismatch(director, nameTail, addr string) {
	e.emit(director, nameTail, EventWhitelistMismatch, addr)
}

func (e *eventLogger) emptyAddressSet(director, nameTail string) {
	e.emit(director, nameTail, EventEmptyAddressSet, "")
}

// resolverFailure renders the "getaddrinfo <errno> (<reason>)" event text of
// spec.md §6, falling back to the plain error string for adapters that
// don't report a *resolver.ResolveError.
func (e *eventLogger) resolverFailure(director, nameTail string, err error) {
	e.logger.Printf("vmod-dynamic: %s %s %s %s", e.vcl, director, nameTail, fmt.Sprint(err))
}
