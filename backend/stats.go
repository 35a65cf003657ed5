package backend

import "sync"

// StatsSink is the host's statistics subsystem, consulted by the registry at
// Acquire (Register) and at refcount-zero Release (Deregister), per spec.md
// §6 "Statistics": "the core only ensures correct registration and
// deregistration timing."
type StatsSink interface {
	Register(name string, obj *Object)
	Deregister(name string)
}

// NopStatsSink discards all registrations. It is the default when a host
// does not care to observe backend lifetime.
type NopStatsSink struct{}

func (NopStatsSink) Register(name string, obj *Object) {}
func (NopStatsSink) Deregister(name string)             {}

// MapStatsSink is a test double recording live registrations by name, used
// by this module's own tests to assert Testable Property "reference count ≥
// 1 ⇔ object is registered with the host" (spec.md §8).
type MapStatsSink struct {
	mu   sync.Mutex
	live map[string]*Object
}

func NewMapStatsSink() *MapStatsSink {
	return &MapStatsSink{live: map[string]*Object{}}
}

func (s *MapStatsSink) Register(name string, obj *Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[name] = obj
}

func (s *MapStatsSink) Deregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, name)
}

// Registered reports whether name is currently registered.
func (s *MapStatsSink) Registered(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[name]
	return ok
}

// Len returns the number of currently registered names.
func (s *MapStatsSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
