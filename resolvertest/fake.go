// Package resolvertest provides an in-process resolver.Adapter double for
// tests of dynamic.Domain/dynamic.Director that need to control resolver
// timing and failure precisely, standing in for the teacher's own
// miniature-dns-server integration harness (superseded here because the
// callers under test never touch the wire).
package resolvertest

import (
	"context"
	"sync"

	"github.com/dynamicvmod/dynamic/resolver"
)

// Answer is one scripted response a Fake can return for a single resolve
// cycle.
type Answer struct {
	Result resolver.Result
	Err    error
}

// Fake is a scriptable resolver.Adapter. Calls consume successive Answers
// from a per-host/per-service script; once a script is exhausted its last
// Answer repeats, so a test can script "succeed twice then fail forever"
// (spec.md §8 scenario 3) without padding the slice.
type Fake struct {
	mu sync.Mutex

	hosts    map[string][]Answer
	hostAt   map[string]int
	services map[string][]Answer
	serviceAt map[string]int

	// NoSRV, when true, makes SupportsSRV report false.
	NoSRV bool

	// Calls records every (kind, key) pair observed, in order.
	Calls []Call
}

type Call struct {
	Kind string // "resolve" or "srv"
	Key  string
}

func New() *Fake {
	return &Fake{
		hosts:     map[string][]Answer{},
		hostAt:    map[string]int{},
		services:  map[string][]Answer{},
		serviceAt: map[string]int{},
	}
}

var _ resolver.Adapter = (*Fake)(nil)

func (f *Fake) SupportsSRV() bool { return !f.NoSRV }

func (f *Fake) Resolve(ctx context.Context, host string, port int) (resolver.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, Call{Kind: "resolve", Key: host})

	script := f.hosts[host]
	if len(script) == 0 {
		return resolver.Result{}, nil
	}

	i := f.hostAt[host]
	if i >= len(script) {
		i = len(script) - 1
	}
	f.hostAt[host] = i + 1

	ans := script[i]
	return ans.Result, ans.Err
}

func (f *Fake) ResolveSRV(ctx context.Context, name string) (resolver.Result, error) {
	if f.NoSRV {
		return resolver.Result{}, resolver.ErrUnsupportedResolver
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, Call{Kind: "srv", Key: name})

	script := f.services[name]
	if len(script) == 0 {
		return resolver.Result{}, nil
	}

	i := f.serviceAt[name]
	if i >= len(script) {
		i = len(script) - 1
	}
	f.serviceAt[name] = i + 1

	ans := script[i]
	return ans.Result, ans.Err
}

// Script sets the answer sequence Resolve(host, ...) returns on successive
// calls.
func (f *Fake) Script(host string, answers ...Answer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts[host] = answers
	f.hostAt[host] = 0
}

// ScriptSRV sets the answer sequence ResolveSRV(name) returns on successive
// calls.
func (f *Fake) ScriptSRV(name string, answers ...Answer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.services[name] = answers
	f.serviceAt[name] = 0
}

// CallCount returns how many times Resolve or ResolveSRV was called for key.
func (f *Fake) CallCount(kind, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Kind == kind && c.Key == key {
			n++
		}
	}
	return n
}
