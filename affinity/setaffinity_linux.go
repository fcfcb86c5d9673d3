//go:build linux

// setaffinity_linux.go — pins the current OS thread to a logical CPU via
// the x/sys/unix wrapper around sched_setaffinity(2). This package is
// cold-path (called once per dedicated thread at startup), so it affords
// the wrapper's small overhead in exchange for readability.

package affinity

import "golang.org/x/sys/unix"

func setAffinity(cpu int) {
	if cpu < 0 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	// Errors (EPERM/EINVAL under restrictive cgroups) are swallowed —
	// the fallback is simply "no pin".
	_ = unix.SchedSetaffinity(0, &set)
}
