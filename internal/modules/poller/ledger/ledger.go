// Package ledger tracks which message identifiers have already been
// processed, making the poll loop idempotent across cycles.
package ledger

import "sync"

// Ledger is a set of seen message ids with O(1) membership and insert,
// safe for concurrent use across per-account goroutines. Ids are
// provider-wide unique, so one ledger serves every account.
//
// Growth is bounded by capacity: when full, ids are evicted in
// insertion order. The capacity must stay far larger than any window in
// which a provider could reuse an identifier; the default configuration
// (one million ids) is weeks of traffic.
type Ledger struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	order    []string
	capacity int
}

// New creates a ledger. A capacity of zero or less means unbounded.
func New(capacity int) *Ledger {
	return &Ledger{
		seen:     make(map[string]struct{}),
		capacity: capacity,
	}
}

// Seen reports whether an id has been marked.
func (l *Ledger) Seen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[id]
	return ok
}

// Mark records an id as processed.
func (l *Ledger) Mark(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mark(id)
}

// MarkIfNew atomically marks an id and reports whether it was new.
// The poll loop uses this so that marking always precedes delivery,
// even with accounts processed concurrently.
func (l *Ledger) MarkIfNew(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return false
	}
	l.mark(id)
	return true
}

// Len returns the number of tracked ids.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.seen)
}

func (l *Ledger) mark(id string) {
	if _, ok := l.seen[id]; ok {
		return
	}
	l.seen[id] = struct{}{}
	l.order = append(l.order, id)

	if l.capacity > 0 && len(l.seen) > l.capacity {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.seen, oldest)
	}
}
