// ════════════════════════════════════════════════════════════════════════════════════════════════
// Octree Engine
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index
// Component: Construction, Worker-Indexed Node Allocation, Public Mutation Surface
//
// Description:
//   Tree owns the two-tier allocator and the root node. Mutation entry points come in
//   matched synchronized/exclusive pairs: synchronized calls take a caller-supplied,
//   call-stable worker index and may run concurrently with other synchronized calls on
//   disjoint or overlapping regions; exclusive calls assume sole ownership and always
//   address worker slot 0. Nothing here suspends, allocates off the arena path beyond a
//   single fetch-add, or touches the heap except via the allocator.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package octree

import (
	"unsafe"

	"octree/geom"
	"octree/octalloc"
)

// DebugAssertions gates the panics octree raises on contract violations (double-remove,
// remove-of-a-missing-index, GC called with an out-of-range depth). Release builds that
// trust their callers may set this false; tests leave it enabled.
var DebugAssertions = true

func assertf(cond bool, msg string) {
	if DebugAssertions && !cond {
		panic("octree: " + msg)
	}
}

// Config fixes the tree's shape for its entire lifetime: no resizing, no changing the
// worker count once workers have started calling in.
type Config struct {
	SizeLog     uint32 // tree depth; world side length is 2^SizeLog
	BufferBytes uint32 // arena capacity backing every node chunk
	Workers     uint32 // fixed worker-index space for synchronized calls
}

// Tree is the parallel octree itself.
type Tree struct {
	alloc   *octalloc.Allocator
	sizeLog uint32
	root    unsafe.Pointer // *treeNode if sizeLog > 0, else *leafNode
}

// New constructs a tree and eagerly allocates its root, single-threaded, before any
// worker is handed the tree.
func New(cfg Config) (*Tree, error) {
	t := &Tree{
		alloc:   octalloc.New(cfg.BufferBytes, cfg.Workers),
		sizeLog: cfg.SizeLog,
	}

	root, err := t.allocateNode(0, false)
	if err != nil {
		return nil, err
	}
	t.root = root

	return t, nil
}

// FieldSize returns the world's side length, 2^SizeLog.
//
//go:nosplit
//go:inline
func (t *Tree) FieldSize() float32 {
	return float32(uint32(1) << t.sizeLog)
}

func (t *Tree) initialAABB() geom.AABB {
	size := t.FieldSize()
	return geom.AABB{Max: geom.Point{X: size, Y: size, Z: size}}
}

// allocateNode pulls one chunk from the allocator and clears it for reuse. Whether the
// caller then treats it as a tree node or a leaf node is decided purely by the depth it
// was allocated at, not by anything recorded here.
func (t *Tree) allocateNode(worker uint32, synchronized bool) (unsafe.Pointer, error) {
	p, err := t.alloc.Allocate(worker, synchronized)
	if err != nil {
		return nil, err
	}
	clearChunk(p)
	return p, nil
}

func (t *Tree) allocateExtension(worker uint32, synchronized bool) (*leafExtension, error) {
	p, err := t.alloc.Allocate(worker, synchronized)
	if err != nil {
		return nil, err
	}
	clearChunk(p)
	return (*leafExtension)(p), nil
}
