package workspace

import (
	"sort"
	"sync"
)

// LockSet serializes conflicting tool calls within a turn. Calls that name
// concrete paths take per-path reader or writer locks; calls with
// unbounded effect (shell commands) take the whole workspace exclusively.
// Readers of disjoint paths run concurrently.
type LockSet struct {
	mu      sync.Mutex
	entries map[string]*pathLock

	// global is held shared by path-scoped calls and exclusively by
	// whole-workspace calls.
	global sync.RWMutex
}

type pathLock struct {
	refs int
	rw   sync.RWMutex
}

// NewLockSet creates an empty lock set.
func NewLockSet() *LockSet {
	return &LockSet{entries: make(map[string]*pathLock)}
}

// AcquireExclusive blocks until no other call holds any lock, then holds
// the whole workspace. The returned release must be called exactly once.
func (s *LockSet) AcquireExclusive() (release func()) {
	s.global.Lock()
	return func() { s.global.Unlock() }
}

// Acquire blocks until every given path is available, holding writer locks
// when write is true and reader locks otherwise. Paths are deduplicated
// and locked in sorted order so concurrent acquisitions cannot deadlock.
// The returned release must be called exactly once.
func (s *LockSet) Acquire(paths []string, write bool) (release func()) {
	s.global.RLock()
	if len(paths) == 0 {
		return func() { s.global.RUnlock() }
	}

	unique := dedupeSorted(paths)
	locks := make([]*pathLock, len(unique))

	s.mu.Lock()
	for i, p := range unique {
		entry, ok := s.entries[p]
		if !ok {
			entry = &pathLock{}
			s.entries[p] = entry
		}
		entry.refs++
		locks[i] = entry
	}
	s.mu.Unlock()

	for _, entry := range locks {
		if write {
			entry.rw.Lock()
		} else {
			entry.rw.RLock()
		}
	}

	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			if write {
				locks[i].rw.Unlock()
			} else {
				locks[i].rw.RUnlock()
			}
		}
		s.mu.Lock()
		for _, p := range unique {
			entry := s.entries[p]
			entry.refs--
			if entry.refs == 0 {
				delete(s.entries, p)
			}
		}
		s.mu.Unlock()
		s.global.RUnlock()
	}
}

func dedupeSorted(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)
	out := sorted[:0]
	for i, p := range sorted {
		if i == 0 || sorted[i-1] != p {
			out = append(out, p)
		}
	}
	return out
}
