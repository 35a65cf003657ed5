package dynamic

import (
	"github.com/dynamicvmod/dynamic/backend"
	"github.com/dynamicvmod/dynamic/registry"
)

// addressSet is the Address Set of spec.md §3: an ordered sequence of
// Endpoint Keys (insertion order gives the round-robin cursor a stable
// iteration order) plus a lookup from Key to the Registry Ref backing it.
// Grounded on the teacher's RecordSet/nsSet pairing of an ordered list with
// value lookup (ns.go). An addressSet, once published, is never mutated -
// reconciliation always builds a new one and swaps the Domain's pointer to
// it (see domain.go).
type addressSet struct {
	keys []backend.Key
	refs map[backend.Key]*registry.Ref
}

func (s *addressSet) len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// sameKeys reports whether a and b contain the same keys in the same order,
// used to detect "reconciliation with identical O and N" (spec.md §8) so a
// no-op reconcile leaves the Address Set pointer-identical.
func sameKeys(a, b []backend.Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
