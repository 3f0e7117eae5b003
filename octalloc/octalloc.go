// ════════════════════════════════════════════════════════════════════════════════════════════════
// Octree Allocator
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index
// Component: Two-Tier Chunk Allocator (Per-Worker Pool + Shared Pool Bank + Arena Fallback)
//
// Description:
//   Routes allocations first to the calling worker's private, unsynchronized pool
//   (no sync at all on the hot path), then to a shared pool bank populated by GC
//   sweeps (one atomic fetch-add to claim a slot), and finally to the chunk arena
//   in batches of K chunks. Each worker's local state lives on its own cache line
//   so steady-state alloc/free never shares a line with another worker.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package octalloc

import (
	"errors"
	"sync"
	"sync/atomic"
	"unsafe"

	"octree/chunkarena"
	"octree/chunkpool"
)

// RefillBatch is the number of chunks pulled from the arena on a local-pool miss.
const RefillBatch = 64

// ErrOutOfMemory is surfaced from the arena fallback once the backing buffer
// is exhausted.
var ErrOutOfMemory = chunkarena.ErrOutOfMemory

// localPart is one worker's allocator slot. Padded to a full cache line so no
// two workers' slots ever share one, eliminating false sharing on the hot path.
//
//go:notinheap
//go:align 64
type localPart struct {
	pool          chunkpool.Pool
	poolsNotEmpty bool
	_             [47]byte // pad to 64 bytes alongside pool's 16B and the bool
}

// Allocator is the two-tier allocator described in the package doc.
type Allocator struct {
	arena *chunkarena.Arena

	growthMu   sync.Mutex
	pools      []*chunkpool.Pool
	poolOffset atomic.Uint64

	locals []localPart
}

// New constructs an allocator over a freshly sized arena with one local part
// per worker. workersCount is fixed for the allocator's lifetime.
func New(bufferBytes uint32, workersCount uint32) *Allocator {
	return &Allocator{
		arena:  chunkarena.New(bufferBytes),
		locals: make([]localPart, workersCount),
	}
}

// Allocate returns one chunk, preferring worker's local pool, then the shared
// pool bank, then the arena. synchronized selects whether the arena fallback
// and pool-bank claim use atomic or plain-increment bookkeeping.
func (a *Allocator) Allocate(worker uint32, synchronized bool) (unsafe.Pointer, error) {
	local := &a.locals[worker]

	if c := local.pool.TryPopNoSync(); c != nil {
		return c, nil
	}

	if local.poolsNotEmpty {
		var idx uint64
		if synchronized {
			idx = a.poolOffset.Add(1) - 1
		} else {
			idx = a.poolOffset.Load()
			a.poolOffset.Store(idx + 1)
		}

		if idx < uint64(len(a.pools)) {
			local.pool.Merge(a.pools[idx].TakeAll())
			return local.pool.TryPopNoSync(), nil
		}
		local.poolsNotEmpty = false
	}

	base, err := a.arena.AllocateChunks(RefillBatch, synchronized)
	if err != nil {
		return nil, err
	}

	for i := uint32(1); i < RefillBatch; i++ {
		local.pool.PushNoSync(unsafe.Add(base, uintptr(i)*chunkarena.ChunkSize))
	}

	return base, nil
}

// Deallocate returns chunk to worker's local pool.
func (a *Allocator) Deallocate(worker uint32, chunk unsafe.Pointer) {
	a.locals[worker].pool.PushNoSync(chunk)
}

// errPoolOffsetNotReset guards AddPools' precondition: growth only ever
// happens after PrepareGC has reset the bank's consumption offset to zero.
var errPoolOffsetNotReset = errors.New("octalloc: AddPools called while poolOffset > 0")

// AddPools appends pools (handed off from a finished GC sweep) to the shared
// bank. Must only be called between GC cycles, after PrepareGC has reset the
// bank's consumption offset to zero.
func (a *Allocator) AddPools(pools []*chunkpool.Pool) error {
	a.growthMu.Lock()
	defer a.growthMu.Unlock()

	if a.poolOffset.Load() != 0 {
		return errPoolOffsetNotReset
	}

	wasEmpty := len(a.pools) == 0
	a.pools = append(a.pools, pools...)

	if wasEmpty && len(a.pools) > 0 {
		for i := range a.locals {
			a.locals[i].poolsNotEmpty = true
		}
	}
	return nil
}

// PrepareGC is called once, single-threaded, before a GC cycle starts. It
// discards the bank's already-consumed prefix and republishes each worker's
// poolsNotEmpty flag based on whether any pools remain.
func (a *Allocator) PrepareGC() {
	a.growthMu.Lock()
	defer a.growthMu.Unlock()

	offset := a.poolOffset.Load()
	if offset > 0 {
		if offset >= uint64(len(a.pools)) {
			a.pools = a.pools[:0]
		} else {
			a.pools = a.pools[offset:]
		}
		a.poolOffset.Store(0)
	}

	nonEmpty := len(a.pools) > 0
	for i := range a.locals {
		a.locals[i].poolsNotEmpty = nonEmpty
	}
}
