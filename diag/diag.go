// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: diag.go — zero-alloc cold-path logging for the stress driver
//
// Purpose:
//   - Logs phase transitions and scenario errors for cmd/stress without
//     introducing heap pressure or pulling in fmt's reflection machinery.
//
// Notes:
//   - Avoids fmt.Sprintf to minimize footprint and latency.
//   - Never called from the octree package itself — the hot mutation path
//     stays allocation- and syscall-free; diagnostics are confined to the
//     out-of-core driver.
// ─────────────────────────────────────────────────────────────────────────────

package diag

import "os"

// Info prints a cold-path progress line tagged with prefix.
//
//go:nosplit
//go:inline
func Info(prefix, message string) {
	write(prefix + ": " + message + "\n")
}

// Warn prints prefix and err.Error(), or just prefix if err is nil.
//
//go:nosplit
//go:inline
func Warn(prefix string, err error) {
	if err != nil {
		write(prefix + ": " + err.Error() + "\n")
		return
	}
	write(prefix + "\n")
}

//go:nosplit
//go:inline
func write(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}
