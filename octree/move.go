// ════════════════════════════════════════════════════════════════════════════════════════════════
// Move Traverser
// ════════════════════════════════════════════════════════════════════════════════════════════════

package octree

import (
	"unsafe"

	"octree/geom"
)

// MoveSynchronized relocates shape from AABBOld to AABBNew in a single descent: leaves
// intersecting only the old box are removed from, leaves intersecting only the new box
// are added to, leaves intersecting both (or neither) are left untouched.
func (t *Tree) MoveSynchronized(move geom.ShapeMove, worker uint32) error {
	box := t.initialAABB()
	_, err := t.moveTraverse(worker, true, move, box, 0, t.root,
		geom.Intersects(move.AABBOld, box), geom.Intersects(move.AABBNew, box))
	return err
}

// MoveExclusive is the single-threaded counterpart.
func (t *Tree) MoveExclusive(move geom.ShapeMove) error {
	box := t.initialAABB()
	_, err := t.moveTraverse(0, false, move, box, 0, t.root,
		geom.Intersects(move.AABBOld, box), geom.Intersects(move.AABBNew, box))
	return err
}

// moveTraverse returns true exactly when a remove was performed somewhere below node,
// the same ascent signal removeTraverse produces, so GC-hint propagation is identical.
func (t *Tree) moveTraverse(worker uint32, synchronized bool, move geom.ShapeMove, box geom.AABB, depth uint32, node unsafe.Pointer, intersectsOld, intersectsNew bool) (bool, error) {
	if depth == t.sizeLog {
		leaf := (*leafNode)(node)

		switch {
		case intersectsOld && !intersectsNew:
			removeItem(leaf, move.Index)
			leaf.gcHint.Store(gcHintSetBit | depth)
			return true, nil
		case intersectsNew && !intersectsOld:
			return false, t.addItem(worker, synchronized, leaf, move.Index)
		}
		return false, nil
	}

	tree := (*treeNode)(node)
	centre := geom.Centre(box)
	childDepth := depth + 1
	removed := false

	for i := 0; i < geom.OctantCount; i++ {
		octBox := geom.Octant(box, centre, i)
		childOld := geom.Intersects(move.AABBOld, octBox)
		childNew := geom.Intersects(move.AABBNew, octBox)
		if !childOld && !childNew {
			continue
		}

		child, err := t.addOctant(worker, synchronized, tree, uint32(i))
		if err != nil {
			return false, err
		}
		r, err := t.moveTraverse(worker, synchronized, move, octBox, childDepth, child, childOld, childNew)
		if err != nil {
			return false, err
		}
		if r {
			removed = true
		}
	}

	if removed {
		tree.gcHint.Store(gcHintSetBit | depth)
	}
	return removed, nil
}
