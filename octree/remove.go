// ════════════════════════════════════════════════════════════════════════════════════════════════
// Remove Traverser
// ════════════════════════════════════════════════════════════════════════════════════════════════

package octree

import (
	"unsafe"

	"octree/geom"
)

// RemoveSynchronized removes shape from every leaf it was added to. Calling it for an
// index that was never added to a given leaf — or twice for the same leaf — is a
// contract violation: the chain walk has no way to distinguish "not here" from
// caller error, so it asserts rather than silently doing nothing.
func (t *Tree) RemoveSynchronized(shape geom.ShapeData, worker uint32) {
	t.removeTraverse(shape, t.initialAABB(), 0, t.root)
}

// RemoveExclusive is the single-threaded counterpart.
func (t *Tree) RemoveExclusive(shape geom.ShapeData) {
	t.removeTraverse(shape, t.initialAABB(), 0, t.root)
}

// removeTraverse descends exactly like add, and on the way back up propagates a GC hint
// to every ancestor that had a descendant actually marked for collection.
func (t *Tree) removeTraverse(shape geom.ShapeData, box geom.AABB, depth uint32, node unsafe.Pointer) bool {
	if depth == t.sizeLog {
		leaf := (*leafNode)(node)
		removeItem(leaf, shape.Index)
		leaf.gcHint.Store(gcHintSetBit | depth)
		return true
	}

	tree := (*treeNode)(node)
	centre := geom.Centre(box)
	childDepth := depth + 1
	marked := false

	for i := 0; i < geom.OctantCount; i++ {
		octBox := geom.Octant(box, centre, i)
		if !geom.Intersects(shape.AABB, octBox) {
			continue
		}

		child := tree.children[i].Load()
		assertf(child != nil, "remove: shape intersects an octant whose child was never created")

		if t.removeTraverse(shape, octBox, childDepth, child) {
			marked = true
		}
	}

	if marked {
		tree.gcHint.Store(gcHintSetBit | depth)
	}
	return marked
}

// removeItem walks the leaf's physical chain for Count logical slots and overwrites the
// first occurrence of index with geom.InvalidIndex. Count itself is never decremented.
func removeItem(leaf *leafNode, index uint32) {
	count := leaf.count.Load()

	n := count
	if n > leafInline {
		n = leafInline
	}
	for i := uint32(0); i < n; i++ {
		if leaf.indices[i] == index {
			leaf.indices[i] = geom.InvalidIndex
			return
		}
	}

	assertf(count > leafInline, "remove: index not found and leaf has no extensions")
	count -= leafInline

	ext := (*leafExtension)(leaf.next.Load())
	for {
		assertf(ext != nil, "remove: index not found before the extension chain ended")

		n := count
		if n > extInline {
			n = extInline
		}
		for i := uint32(0); i < n; i++ {
			if ext.indices[i] == index {
				ext.indices[i] = geom.InvalidIndex
				return
			}
		}

		assertf(count > extInline, "remove: index not found and chain ended")
		count -= extInline
		ext = (*leafExtension)(ext.next.Load())
	}
}
