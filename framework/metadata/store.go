// Package metadata provides the key/value store that injection descriptors
// are recorded in.
//
// A Store associates metadata with a target identity, optionally scoped to a
// member name. Lookups are single level: the store never walks ancestor
// targets. Callers that need inheritance (see container.DescribeInjectedProperties)
// walk the hierarchy themselves.
//
//	store := metadata.NewStore()
//	store.DefineMetadata("inject:properties", props, target, "")
//	v, ok := store.GetOwnMetadata("inject:properties", target, "")
package metadata

import (
	"sort"
	"sync"
)

// Target is any comparable identity metadata can be attached to.
type Target any

// entry is the full address of a stored value.
type entry struct {
	key    string
	target Target
	member string
}

// Store is a process-scoped metadata registry. The zero value is not usable;
// create one with NewStore.
type Store struct {
	mu     sync.RWMutex
	values map[entry]any
}

// Default is the shared store used by the package-level registration helpers.
var Default = NewStore()

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[entry]any)}
}

// DefineMetadata stores value under (key, target, member), replacing any
// previous value for that exact tuple. An empty member addresses the target
// itself.
func (s *Store) DefineMetadata(key string, value any, target Target, member string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[entry{key: key, target: target, member: member}] = value
}

// GetOwnMetadata returns the value stored directly on target.
func (s *Store) GetOwnMetadata(key string, target Target, member string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[entry{key: key, target: target, member: member}]
	return v, ok
}

// GetMetadata is the lookup primitive used by inheritance-aware callers. It
// performs no chain walking and therefore behaves like GetOwnMetadata.
func (s *Store) GetMetadata(key string, target Target, member string) (any, bool) {
	return s.GetOwnMetadata(key, target, member)
}

// HasOwnMetadata reports whether a value is stored for the tuple.
func (s *Store) HasOwnMetadata(key string, target Target, member string) bool {
	_, ok := s.GetOwnMetadata(key, target, member)
	return ok
}

// Delete removes the value stored for the tuple and reports whether one existed.
func (s *Store) Delete(key string, target Target, member string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{key: key, target: target, member: member}
	_, ok := s.values[e]
	delete(s.values, e)
	return ok
}

// Keys returns the sorted metadata keys defined on (target, member).
func (s *Store) Keys(target Target, member string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for e := range s.values {
		if e.target == target && e.member == member {
			out = append(out, e.key)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of stored values.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
