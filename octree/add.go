// ════════════════════════════════════════════════════════════════════════════════════════════════
// Add Traverser
// ════════════════════════════════════════════════════════════════════════════════════════════════

package octree

import (
	"unsafe"

	"octree/geom"
)

// AddSynchronized inserts shape into every leaf whose AABB it intersects. worker must be
// stable for the duration of this call and must not be used concurrently by another call.
func (t *Tree) AddSynchronized(shape geom.ShapeData, worker uint32) error {
	return t.addTraverse(worker, true, shape, t.initialAABB(), 0, t.root)
}

// AddExclusive is the single-threaded counterpart; it always addresses worker slot 0.
func (t *Tree) AddExclusive(shape geom.ShapeData) error {
	return t.addTraverse(0, false, shape, t.initialAABB(), 0, t.root)
}

func (t *Tree) addTraverse(worker uint32, synchronized bool, shape geom.ShapeData, box geom.AABB, depth uint32, node unsafe.Pointer) error {
	if depth == t.sizeLog {
		return t.addItem(worker, synchronized, (*leafNode)(node), shape.Index)
	}

	tree := (*treeNode)(node)
	centre := geom.Centre(box)
	childDepth := depth + 1

	for i := 0; i < geom.OctantCount; i++ {
		octBox := geom.Octant(box, centre, i)
		if !geom.Intersects(shape.AABB, octBox) {
			continue
		}
		child, err := t.addOctant(worker, synchronized, tree, uint32(i))
		if err != nil {
			return err
		}
		if err := t.addTraverse(worker, synchronized, shape, octBox, childDepth, child); err != nil {
			return err
		}
	}
	return nil
}

// addOctant ensures children[octant] exists, allocating and racing to publish it via a
// single CAS attempt if not. The loser of the race deallocates its freshly-allocated
// chunk into its own worker-local pool and adopts the winner — no retry loop is needed
// because a non-null child link is never cleared outside of GC, and GC never runs
// concurrently with mutation.
func (t *Tree) addOctant(worker uint32, synchronized bool, parent *treeNode, octant uint32) (unsafe.Pointer, error) {
	link := &parent.children[octant]

	if p := link.Load(); p != nil {
		return p, nil
	}

	newNode, err := t.allocateNode(worker, synchronized)
	if err != nil {
		return nil, err
	}

	if !synchronized {
		if err := link.Store(newNode); err != nil {
			return nil, err
		}
		return newNode, nil
	}

	var expected unsafe.Pointer
	ok, err := link.CompareAndSwap(&expected, newNode)
	if err != nil {
		return nil, err
	}
	if ok {
		return newNode, nil
	}

	assertf(expected != nil, "addOctant: lost CAS but observed nil child")
	t.alloc.Deallocate(worker, newNode)
	return expected, nil
}

// addItem reserves the next logical slot in the leaf's index chain and writes index
// into it, extending the chain with a new leaf_extension on overflow.
func (t *Tree) addItem(worker uint32, synchronized bool, leaf *leafNode, index uint32) error {
	var offset uint32
	if synchronized {
		offset = leaf.count.Add(1) - 1
	} else {
		offset = leaf.count.Load()
		leaf.count.Store(offset + 1)
	}

	if offset < leafInline {
		leaf.indices[offset] = index
		return nil
	}
	offset -= leafInline

	link := &leaf.next
	for {
		extPtr := link.Load()
		var ext *leafExtension

		if extPtr == nil {
			newExt, err := t.allocateExtension(worker, synchronized)
			if err != nil {
				return err
			}

			if !synchronized {
				if err := link.Store(unsafe.Pointer(newExt)); err != nil {
					return err
				}
				ext = newExt
			} else {
				var expected unsafe.Pointer
				ok, err := link.CompareAndSwap(&expected, unsafe.Pointer(newExt))
				if err != nil {
					return err
				}
				if ok {
					ext = newExt
				} else {
					assertf(expected != nil, "addItem: lost CAS but observed nil extension")
					t.alloc.Deallocate(worker, unsafe.Pointer(newExt))
					ext = (*leafExtension)(expected)
				}
			}
		} else {
			ext = (*leafExtension)(extPtr)
		}

		if offset < extInline {
			ext.indices[offset] = index
			return nil
		}
		offset -= extInline
		link = &ext.next
	}
}
