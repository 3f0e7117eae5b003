// ════════════════════════════════════════════════════════════════════════════════════════════════
// Garbage Collection
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index
// Component: Two-Phase Mark/Sweep Over GC Hints
//
// Description:
//   Phase one (PrepareGarbageCollection) is single-threaded: it resets the allocator's
//   pool bank and walks down from the root looking for interior nodes with a set GC
//   hint, stopping at the requested depth and handing back disjoint roots. Phase two
//   (CollectGarbage) may run once per root, in parallel across roots: it sweeps each
//   subtree, compacting emptied leaves and detaching fully-empty children, batching
//   reclaimed chunks back into the allocator's pool bank in groups of gcBatchSize.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package octree

import (
	"unsafe"

	"octree/chunkpool"
	"octree/geom"
	"octree/octalloc"
)

// gcBatchSize mirrors octalloc.RefillBatch: reclaimed chunks are queued back to the
// allocator in groups this large rather than one at a time.
const gcBatchSize = 64

// GCRoot is an opaque handle to a tree node whose GC hint is set, produced by
// PrepareGarbageCollection and consumed by exactly one CollectGarbage call.
type GCRoot struct {
	node  *treeNode
	depth uint32
}

// PrepareGarbageCollection resets the allocator between cycles and returns the set of
// pairwise-disjoint roots at the given depth whose subtrees have outstanding GC hints.
// depth must be strictly less than the tree's SizeLog — every root is an interior node.
// Callers must have quiesced all synchronized mutators before calling this.
func (t *Tree) PrepareGarbageCollection(depth uint32) []GCRoot {
	assertf(depth < t.sizeLog, "PrepareGarbageCollection: depth must be < SizeLog")

	t.alloc.PrepareGC()

	var roots []GCRoot
	t.collectRoots(&roots, (*treeNode)(t.root), 0, depth)
	return roots
}

func (t *Tree) collectRoots(roots *[]GCRoot, node *treeNode, curDepth, targetDepth uint32) {
	if node.gcHint.Load() == 0 {
		return
	}

	if curDepth == targetDepth {
		*roots = append(*roots, GCRoot{node: node, depth: curDepth})
		return
	}

	node.gcHint.Store(0)

	childDepth := curDepth + 1
	leafBelow := childDepth == t.sizeLog

	for i := range node.children {
		childPtr := node.children[i].Load()
		if childPtr == nil || leafBelow {
			continue
		}
		t.collectRoots(roots, (*treeNode)(childPtr), childDepth, targetDepth)
	}
}

// CollectGarbage sweeps one root produced by PrepareGarbageCollection, reclaiming every
// chunk that becomes prunable. Distinct roots from the same preparation touch disjoint
// subtrees and may be collected concurrently.
func (t *Tree) CollectGarbage(root GCRoot) error {
	batch := &gcBatch{}
	t.sweep(unsafe.Pointer(root.node), root.depth, batch)
	return batch.finalize(t.alloc)
}

// sweep reports whether node's entire subtree became prunable (empty leaf, or a tree
// node all of whose children are themselves prunable or were never allocated).
func (t *Tree) sweep(node unsafe.Pointer, depth uint32, batch *gcBatch) bool {
	if depth == t.sizeLog {
		leaf := (*leafNode)(node)
		if leaf.gcHint.Load() == 0 {
			return false
		}
		newCount := compactLeaf(leaf)
		leaf.gcHint.Store(0)
		return newCount == 0
	}

	tree := (*treeNode)(node)
	if tree.gcHint.Load() == 0 {
		return false
	}
	tree.gcHint.Store(0)

	childDepth := depth + 1
	allEmpty := true

	for i := range tree.children {
		childPtr := tree.children[i].Load()
		if childPtr == nil {
			continue
		}
		if t.sweep(childPtr, childDepth, batch) {
			tree.children[i].Store(nil)
			batch.add(childPtr)
		} else {
			allEmpty = false
		}
	}
	return allEmpty
}

// compactLeaf copies every non-Invalid index in the leaf's chain forward into the
// earliest physical slots, preserving order, and sets Count to the number copied.
// Extensions stay linked off the leaf even if now under-filled or entirely drained, and
// their chunks are never returned to the allocator: when the whole leaf becomes
// prunable, the sweep above detaches only the leaf chunk and leaves the extensions
// attached to it rather than walking the chain to free them individually (see
// DESIGN.md, the decision on a detached subtree's extensions).
func compactLeaf(leaf *leafNode) uint32 {
	segments := make([][]uint32, 0, 4)
	segments = append(segments, leaf.indices[:])
	for ext := (*leafExtension)(leaf.next.Load()); ext != nil; ext = (*leafExtension)(ext.next.Load()) {
		segments = append(segments, ext.indices[:])
	}

	remaining := leaf.count.Load()
	writeSeg, writeIdx := 0, 0
	written := uint32(0)

	for _, seg := range segments {
		for _, v := range seg {
			if remaining == 0 {
				break
			}
			remaining--

			if v == geom.InvalidIndex {
				continue
			}

			segments[writeSeg][writeIdx] = v
			written++
			writeIdx++
			if writeIdx == len(segments[writeSeg]) {
				writeSeg++
				writeIdx = 0
			}
		}
	}

	leaf.count.Store(written)
	return written
}

// gcBatch accumulates chunks detached by one CollectGarbage call into unsynchronized
// pools of gcBatchSize, queuing completed pools for a single handoff to the allocator's
// pool bank at the end of the sweep.
type gcBatch struct {
	pools   []*chunkpool.Pool
	current *chunkpool.Pool
	count   int
}

func (b *gcBatch) add(chunk unsafe.Pointer) {
	if b.current == nil {
		b.current = &chunkpool.Pool{}
	}
	b.current.PushNoSync(chunk)
	b.count++

	if b.count == gcBatchSize {
		b.pools = append(b.pools, b.current)
		b.current = nil
		b.count = 0
	}
}

func (b *gcBatch) finalize(alloc *octalloc.Allocator) error {
	if b.count > 0 {
		b.pools = append(b.pools, b.current)
	}
	if len(b.pools) == 0 {
		return nil
	}
	return alloc.AddPools(b.pools)
}
