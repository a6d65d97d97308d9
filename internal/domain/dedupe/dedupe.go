// Package dedupe guards audit submissions against duplicate processing.
// Clients retry POSTs on timeouts, so every submission carries a client
// generated submission ID; the guard remembers the IDs it has seen in a
// bounded in-memory set and evicts the newest entries first once full.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard tracks client submission IDs to detect retried submissions.
type Guard interface {
	// SeenAndRecord reports whether the submission ID was seen before and
	// records it atomically. Returns true if the ID is a duplicate.
	SeenAndRecord(ctx context.Context, submissionID string) bool
	// Unrecord removes a submission ID so a later retry is accepted.
	// Called when processing fails after the ID was recorded.
	Unrecord(ctx context.Context, submissionID string)
	// Size returns the number of submission IDs currently tracked.
	Size() int64
}

const defaultMaxEntries = 100_000

// node is a singly linked list element for insertion-order tracking.
type node struct {
	id   string
	next *node
}

// inMemoryGuard is a bounded Guard. When the capacity is reached the
// most recently recorded IDs are dropped first, preserving the oldest
// entries since stale retries tend to reference old submissions.
type inMemoryGuard struct {
	mu         sync.RWMutex
	seen       map[string]*node
	head       *node // newest entry
	maxEntries int
	size       atomic.Int64
	nodePool   sync.Pool
}

// NewInMemoryGuard creates a submission guard with the given options.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		seen:       make(map[string]*node),
		maxEntries: defaultMaxEntries,
		nodePool: sync.Pool{
			New: func() any {
				return &node{}
			},
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// SeenAndRecord checks for a duplicate and records the ID if new.
func (g *inMemoryGuard) SeenAndRecord(_ context.Context, submissionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[submissionID]; ok {
		return true
	}

	if len(g.seen) >= g.maxEntries {
		g.evictNewest()
	}

	n, ok := g.nodePool.Get().(*node)
	if !ok {
		n = &node{}
	}
	n.id = submissionID
	n.next = g.head
	g.head = n
	g.seen[submissionID] = n
	g.size.Store(int64(len(g.seen)))

	return false
}

// Unrecord forgets a submission ID.
func (g *inMemoryGuard) Unrecord(_ context.Context, submissionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.seen[submissionID]
	if !ok {
		return
	}

	delete(g.seen, submissionID)
	g.unlink(n)
	g.release(n)
	g.size.Store(int64(len(g.seen)))
}

// Size returns the number of tracked submission IDs.
func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}

// evictNewest drops the head of the list. Caller must hold the lock.
func (g *inMemoryGuard) evictNewest() {
	if g.head == nil {
		return
	}

	evicted := g.head
	g.head = evicted.next
	delete(g.seen, evicted.id)
	g.release(evicted)
}

// unlink removes n from the list. Caller must hold the lock.
func (g *inMemoryGuard) unlink(n *node) {
	if g.head == n {
		g.head = n.next
		return
	}

	for cur := g.head; cur != nil; cur = cur.next {
		if cur.next == n {
			cur.next = n.next
			return
		}
	}
}

// release returns a node to the pool.
func (g *inMemoryGuard) release(n *node) {
	n.id = ""
	n.next = nil
	g.nodePool.Put(n)
}
