package mdtypst

import "runtime"

// Worker sizing constants.
const (
	// MinWorkers ensures at least one document builds at a time.
	MinWorkers = 1

	// MaxWorkers caps concurrent documents; each spawns its own compiler
	// and interpreter processes.
	MaxWorkers = 8

	// cpuDivisor leaves headroom for typst and interpreter child processes.
	cpuDivisor = 2
)

// ResolveWorkers determines how many documents to build in parallel.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolveWorkers(workers int) int {
	// Explicit value takes priority
	if workers > 0 {
		return workers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
