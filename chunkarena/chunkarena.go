// ════════════════════════════════════════════════════════════════════════════════════════════════
// Chunk Arena
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index
// Component: Monotonic, Cache-Line-Aligned Bump Allocator
//
// Description:
//   Hands out fixed-size, cache-line-aligned chunks from a single pre-sized byte
//   buffer via a bumping offset. Never frees individual chunks — reclamation is the
//   garbage collector's job, routed through the chunk pool, not back through here.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package chunkarena

import (
	"errors"
	"sync/atomic"
	"unsafe"
)

// ChunkSize is the fixed allocation unit: one cache line. Every node kind the
// octree engine defines must fit within it (enforced by compile-time size
// assertions alongside the node definitions, not here).
const ChunkSize = 64

// ErrOutOfMemory is returned once the arena's backing buffer is exhausted.
var ErrOutOfMemory = errors.New("chunkarena: out of memory")

// Arena is a bump allocator over a fixed, cache-line-aligned byte buffer.
//
//go:notinheap
//go:align 64
type Arena struct {
	raw    []byte       // 24B - backing allocation (unaligned start), kept to pin the GC root
	data   []byte       // 24B - aligned view into raw, length == capacity
	offset atomic.Uint64 // 8B - next free byte offset into data
}

// New rounds capacityBytes up to a whole number of chunks and reserves a
// cache-line-aligned buffer of that size. Go's allocator gives no aligned-alloc
// primitive, so alignment is carved out of an over-sized raw slice by hand —
// the one place this package falls back to plain arithmetic instead of a
// third-party allocator (see DESIGN.md).
func New(capacityBytes uint32) *Arena {
	size := roundUpChunks(uint64(capacityBytes))

	raw := make([]byte, size+ChunkSize-1)
	start := (uintptr(unsafe.Pointer(&raw[0])) + ChunkSize - 1) &^ uintptr(ChunkSize-1)
	skip := start - uintptr(unsafe.Pointer(&raw[0]))

	return &Arena{
		raw:  raw,
		data: raw[skip : skip+uintptr(size) : skip+uintptr(size)],
	}
}

func roundUpChunks(n uint64) uint64 {
	return (n + ChunkSize - 1) / ChunkSize * ChunkSize
}

// Capacity returns the arena's usable byte size (a multiple of ChunkSize).
func (a *Arena) Capacity() uint64 {
	return uint64(len(a.data))
}

// AllocateChunks reserves n contiguous chunks and returns a pointer to the
// first one. In synchronized mode the offset advances via atomic fetch-add;
// in exclusive mode via a plain load-then-store, valid only when the caller
// guarantees no concurrent access.
func (a *Arena) AllocateChunks(n uint32, synchronized bool) (unsafe.Pointer, error) {
	need := uint64(n) * ChunkSize

	var prev uint64
	if synchronized {
		prev = a.offset.Add(need) - need
	} else {
		prev = a.offset.Load()
		a.offset.Store(prev + need)
	}

	if prev+need > uint64(len(a.data)) {
		return nil, ErrOutOfMemory
	}

	return unsafe.Pointer(&a.data[prev]), nil
}
