// ════════════════════════════════════════════════════════════════════════════════════════════════
// Octree Node Layout
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index
// Component: Tree/Leaf/Extension Chunk Layouts + Compile-Time Size Assertions
//
// Description:
//   Node kind is never tagged in the chunk itself — it is discriminated purely by depth
//   during traversal (depth == sizeLog means leaf, everything above is a tree node).
//   All three layouts are sized to fit within chunkarena.ChunkSize so the allocator can
//   hand out one uniform chunk type regardless of what it ends up holding.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package octree

import (
	"sync/atomic"
	"unsafe"

	"octree/chunkarena"
	"octree/geom"
	"octree/relptr"
)

// leafInline and extInline are sized so that leafNode and leafExtension each land on
// exactly chunkarena.ChunkSize; treeNode does not depend on them and fits within one chunk.
const (
	leafInline = 13
	extInline  = 15
)

// gcHintSetBit marks a GC hint as deposited; the low 31 bits carry the node's depth.
const gcHintSetBit = uint32(0x80000000)

// treeNode is an interior node: eight relative child links plus an advisory GC hint.
// It is allocated from a full chunk but only uses part of it — the remaining bytes are
// inert padding inside the chunk, never touched.
type treeNode struct {
	children [geom.OctantCount]relptr.RelPtr32
	gcHint   atomic.Uint32
}

// leafNode terminates the tree at depth == sizeLog. Count is the next free logical
// slot (never decremented by remove); Indices holds the first leafInline entries of
// the chain, continued through Next if the leaf overflows.
type leafNode struct {
	count   atomic.Uint32
	gcHint  atomic.Uint32
	indices [leafInline]uint32
	next    relptr.RelPtr32
}

// leafExtension is an overflow segment linked off a leaf (or another extension) once
// the inline array fills.
type leafExtension struct {
	indices [extInline]uint32
	next    relptr.RelPtr32
}

// Compile-time layout checks, in the style of jmt's layout_assert.go: a negative array
// length fails the build, so these are enforced without any runtime cost.
var (
	_ [chunkarena.ChunkSize - int(unsafe.Sizeof(treeNode{}))]byte

	_ [chunkarena.ChunkSize - int(unsafe.Sizeof(leafNode{}))]byte
	_ [int(unsafe.Sizeof(leafNode{})) - chunkarena.ChunkSize]byte

	_ [chunkarena.ChunkSize - int(unsafe.Sizeof(leafExtension{}))]byte
	_ [int(unsafe.Sizeof(leafExtension{})) - chunkarena.ChunkSize]byte
)

// clearChunk zero-fills a freshly (re)allocated chunk before it is reinterpreted as a
// node. Chunks returned by the arena on first use are already zero, but chunks handed
// back through the pool after GC carry whatever the prior occupant left behind — their
// identity is destroyed on reclaim, so the next occupant must not see stale bytes.
//
//go:nosplit
//go:inline
func clearChunk(p unsafe.Pointer) {
	*(*[chunkarena.ChunkSize]byte)(p) = [chunkarena.ChunkSize]byte{}
}
