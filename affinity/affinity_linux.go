// affinity_linux.go — CPU pinning for octree worker goroutines
//go:build linux && !tinygo

package affinity

import (
	"runtime"
	"syscall"
	"unsafe"
)

// bitsPerMaskWord is the width sched_setaffinity's single-word mask covers;
// a worker index that reduces to a CPU outside this range is left unpinned
// rather than rejected, since a missed pin only costs cache locality.
const bitsPerMaskWord = 8 * int(unsafe.Sizeof(uintptr(0)))

// PinWorker binds the calling OS thread to one CPU, chosen as worker modulo
// the machine's GOMAXPROCS, so a worker goroutine locked to its OS thread
// keeps its mutations on that core. The mask is built on the fly rather than looked up from a
// precomputed table; a single shift costs nothing next to the syscall itself.
// Call after runtime.LockOSThread.
func PinWorker(worker uint32) {
	cpus := runtime.GOMAXPROCS(0)
	if cpus <= 0 {
		return
	}
	cpu := int(worker) % cpus
	if cpu >= bitsPerMaskWord {
		return
	}

	mask := uintptr(1) << uint(cpu)
	_, _, _ = syscall.RawSyscall(
		syscall.SYS_SCHED_SETAFFINITY,
		0,
		unsafe.Sizeof(mask),
		uintptr(unsafe.Pointer(&mask)),
	)
}
