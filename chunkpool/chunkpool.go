// ════════════════════════════════════════════════════════════════════════════════════════════════
// Chunk Pool
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index
// Component: Intrusive LIFO Free-List Of Fixed-Size Chunks
//
// Description:
//   A free-list that stores its own "next" link in the first word of each free
//   chunk — no separate bookkeeping allocation. Comes in two flavors selected at
//   construction: synchronized (spin-lock protected) and unsynchronized. The
//   no-sync accessors never take the lock even on the synchronized flavor; the
//   caller is asserting it already owns exclusive access.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package chunkpool

import (
	"sync/atomic"
	"unsafe"
)

// header occupies the first word of every free chunk, forming the intrusive list.
type header struct {
	next unsafe.Pointer
}

// SpinLock is a 32-bit CAS spin lock with no fairness or backoff — critical
// sections here are O(1) except Merge, whose externally-supplied chain is
// walked without the lock held.
type SpinLock struct {
	flag atomic.Uint32
}

// TryLock attempts to acquire the lock via a single CAS 0→1.
//
//go:nosplit
//go:inline
func (s *SpinLock) TryLock() bool {
	return s.flag.CompareAndSwap(0, 1)
}

// Lock busy-loops over TryLock until it succeeds.
func (s *SpinLock) Lock() {
	for !s.TryLock() {
	}
}

// Unlock releases the lock via a plain store.
//
//go:nosplit
//go:inline
func (s *SpinLock) Unlock() {
	s.flag.Store(0)
}

// Pool is an intrusive LIFO chunk free-list. The zero value is an empty,
// unsynchronized pool; use NewSynchronized for the spin-lock-protected flavor.
type Pool struct {
	synchronized bool
	lock         SpinLock
	head         unsafe.Pointer
}

// NewSynchronized returns an empty pool whose Push/TryPop/TakeAll/Merge take
// the internal spin lock.
func NewSynchronized() *Pool {
	return &Pool{synchronized: true}
}

// IsEmpty reports whether the pool currently holds no chunks. It is a plain
// peek, not synchronized against concurrent mutation — a true result can go
// stale the instant another goroutine pushes.
func (p *Pool) IsEmpty() bool {
	return p.head == nil
}

// TryPopNoSync pops one chunk without ever taking the lock, even on the
// synchronized flavor. The caller must guarantee exclusive access.
//
//go:nosplit
//go:inline
func (p *Pool) TryPopNoSync() unsafe.Pointer {
	h := p.head
	if h == nil {
		return nil
	}
	p.head = (*header)(h).next
	return h
}

// TryPop pops one chunk, taking the spin lock first if this pool is synchronized.
func (p *Pool) TryPop() unsafe.Pointer {
	if p.synchronized {
		p.lock.Lock()
		defer p.lock.Unlock()
	}
	return p.TryPopNoSync()
}

// PushNoSync returns chunk to the pool without taking the lock.
//
//go:nosplit
//go:inline
func (p *Pool) PushNoSync(chunk unsafe.Pointer) {
	(*header)(chunk).next = p.head
	p.head = chunk
}

// Push returns chunk to the pool, taking the spin lock first if synchronized.
func (p *Pool) Push(chunk unsafe.Pointer) {
	if p.synchronized {
		p.lock.Lock()
		defer p.lock.Unlock()
	}
	p.PushNoSync(chunk)
}

// TakeAll detaches and returns the entire chain head in O(1), leaving the
// pool empty.
func (p *Pool) TakeAll() unsafe.Pointer {
	if p.synchronized {
		p.lock.Lock()
		defer p.lock.Unlock()
	}
	h := p.head
	p.head = nil
	return h
}

// Merge prepends an externally detached chain (as returned by TakeAll) onto
// this pool. The chain is walked to find its tail before the lock (if any) is
// taken, so the critical section itself stays O(1).
func (p *Pool) Merge(chainHead unsafe.Pointer) {
	if chainHead == nil {
		return
	}

	last := chainHead
	for next := (*header)(last).next; next != nil; next = (*header)(last).next {
		last = next
	}

	if p.synchronized {
		p.lock.Lock()
		defer p.lock.Unlock()
	}
	(*header)(last).next = p.head
	p.head = chainHead
}
