// ════════════════════════════════════════════════════════════════════════════════════════════════
// Relative Pointer
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Parallel Octree Spatial Index
// Component: Atomic Signed-Offset Pointer For Lock-Free Child Links
//
// Description:
//   A RelPtr32 stores the byte distance from its own address to the pointee instead
//   of an absolute address. Offset zero is reserved for "no pointee", so a node's
//   eight child links plus a GC hint fit in a single 64-byte chunk without the node
//   ever needing to know its own absolute address.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package relptr

import (
	"errors"
	"math"
	"sync/atomic"
	"unsafe"
)

// ErrSelfPointer is returned when the target address equals the pointer's own
// address — offset 0 is reserved to mean "null", so self-reference is unrepresentable.
var ErrSelfPointer = errors.New("relptr: self-pointer is unrepresentable (offset 0 means null)")

// ErrOffsetOverflow is returned when the target lies further than ±2^31 bytes away.
var ErrOffsetOverflow = errors.New("relptr: target out of range of a 32-bit relative offset")

// RelPtr32 is an atomic signed 32-bit offset pointer. The zero value is a valid
// null pointer. It must never be copied once shared across goroutines — like
// sync/atomic values, it lives embedded inside a node chunk at a fixed address.
type RelPtr32 struct {
	offset atomic.Int32
}

// Load decodes the current pointee, or nil if the link is unset.
//
//go:nosplit
//go:inline
func (p *RelPtr32) Load() unsafe.Pointer {
	return decode(p, p.offset.Load())
}

// Store unconditionally sets the link to target (nil clears it).
func (p *RelPtr32) Store(target unsafe.Pointer) error {
	off, err := diff(p, target)
	if err != nil {
		return err
	}
	p.offset.Store(off)
	return nil
}

// CompareAndSwap performs a strong CAS from *expected to desired. On success the
// link now points at desired. On failure *expected is updated to the link's value
// as loaded right after the failed CAS, so the caller can retry or adopt the winner
// without a load of its own — close to compare_exchange_strong's out-parameter semantics.
func (p *RelPtr32) CompareAndSwap(expected *unsafe.Pointer, desired unsafe.Pointer) (bool, error) {
	expectedOff, err := diff(p, *expected)
	if err != nil {
		return false, err
	}
	desiredOff, err := diff(p, desired)
	if err != nil {
		return false, err
	}

	if p.offset.CompareAndSwap(expectedOff, desiredOff) {
		return true, nil
	}

	*expected = decode(p, p.offset.Load())
	return false, nil
}

//go:nosplit
//go:inline
func decode(self *RelPtr32, off int32) unsafe.Pointer {
	if off == 0 {
		return nil
	}
	return unsafe.Pointer(uintptr(unsafe.Pointer(self)) + uintptr(off))
}

func diff(self *RelPtr32, target unsafe.Pointer) (int32, error) {
	if target == nil {
		return 0, nil
	}

	d := int64(uintptr(target)) - int64(uintptr(unsafe.Pointer(self)))
	if d == 0 {
		return 0, ErrSelfPointer
	}
	if d < math.MinInt32 || d > math.MaxInt32 {
		return 0, ErrOffsetOverflow
	}
	return int32(d), nil
}
