// affinity_stub.go — no-op fallback for non-Linux or TinyGo builds
//go:build !linux || tinygo

package affinity

// PinWorker is a no-op stub so callers can pin worker goroutines
// unconditionally across every target.
func PinWorker(worker uint32) {}
