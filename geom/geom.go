// ════════════════════════════════════════════════════════════════════════════════════════════════
// Axis-Aligned Geometry Primitives
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index
// Component: Shape & AABB Types Shared By The Allocator-Free Hot Path
//
// Description:
//   Plain value types describing the world the octree indexes: points, axis-aligned
//   bounding boxes, and the shape records workers add/remove/move. Intersection and
//   octant-split are pure functions with no allocation, safe to call from any worker.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package geom

// InvalidIndex is the sentinel written into a vacated leaf slot by remove.
// It can never be a legal shape index (the caller's index space is [0, 2^32-2]).
const InvalidIndex = ^uint32(0)

// Point is a single coordinate in the indexed world.
type Point struct {
	X, Y, Z float32
}

// AABB is an axis-aligned bounding box; Min and Max are inclusive corners.
type AABB struct {
	Min, Max Point
}

// ShapeData is a single mutation target: a shape's AABB and its caller-owned index.
type ShapeData struct {
	AABB  AABB
	Index uint32
}

// ShapeMove carries both the old and new AABB for a moved shape.
type ShapeMove struct {
	AABBOld, AABBNew AABB
	Index            uint32
}

// Centre returns the componentwise midpoint of the box.
//
//go:nosplit
//go:inline
func Centre(box AABB) Point {
	return Point{
		X: (box.Min.X + box.Max.X) * 0.5,
		Y: (box.Min.Y + box.Max.Y) * 0.5,
		Z: (box.Min.Z + box.Max.Z) * 0.5,
	}
}

// Intersects reports whether two AABBs overlap. Touching counts as overlap.
//
//go:nosplit
//go:inline
func Intersects(a, b AABB) bool {
	return overlap1D(a.Min.X, a.Max.X, b.Min.X, b.Max.X) &&
		overlap1D(a.Min.Y, a.Max.Y, b.Min.Y, b.Max.Y) &&
		overlap1D(a.Min.Z, a.Max.Z, b.Min.Z, b.Max.Z)
}

//go:nosplit
//go:inline
func overlap1D(aMin, aMax, bMin, bMax float32) bool {
	if aMax < bMin {
		return false
	}
	if bMax < aMin {
		return false
	}
	return true
}

// Octant computes the AABB of child octant i (0..7) of box, given its precomputed
// centre. Bit 0 of i selects Y-high, bit 1 selects X-high, bit 2 selects Z-high —
// this unintuitive ordering matches the per-octant formulas verbatim rather than
// a tidier bit-to-axis convention.
//
// Octant 6 is the one place the upstream formula degenerates (max.Z = centre.Z
// instead of box.Max.Z); this implementation always returns the geometrically
// correct cube — see DESIGN.md for the recorded decision on that ambiguity.
func Octant(box AABB, centre Point, i int) AABB {
	var out AABB

	if i&2 != 0 {
		out.Min.X, out.Max.X = centre.X, box.Max.X
	} else {
		out.Min.X, out.Max.X = box.Min.X, centre.X
	}
	if i&1 != 0 {
		out.Min.Y, out.Max.Y = centre.Y, box.Max.Y
	} else {
		out.Min.Y, out.Max.Y = box.Min.Y, centre.Y
	}
	if i&4 != 0 {
		out.Min.Z, out.Max.Z = centre.Z, box.Max.Z
	} else {
		out.Min.Z, out.Max.Z = box.Min.Z, centre.Z
	}

	return out
}

// OctantCount is the fixed fan-out of every interior node.
const OctantCount = 8
