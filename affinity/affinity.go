// affinity.go — CPU-pin bookkeeping for dedicated session/merger/logger
// threads.
// ============================================================================
// PIN ASSIGNMENT REGISTRY
// ============================================================================
//
// Global state tracking which logical CPUs have already been claimed by a
// pinned thread, so two components never fight over the same core.
// Explicit init/reset rather than module-load-time side effects, so tests
// can exercise a clean registry per case.
//
// Threading model:
//   - Pin is called once per dedicated thread at startup, never from a
//     hot loop.
//   - assigned is a plain map guarded by a mutex; this is cold-path
//     bookkeeping, not a place that needs lock-free tricks.

package affinity

import (
	"fmt"
	"sync"

	"github.com/codewanderer42820/marketfeed/debug"
)

var (
	mu       sync.Mutex
	assigned = map[int]string{}
)

// Reset clears the pin registry. Used by tests and at process start.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	assigned = map[int]string{}
}

// Pin assigns the calling goroutine's OS thread to core, records the
// owner label for diagnostics, and prints a one-time confirmation line.
// Returns an error if core is already claimed by a different owner;
// re-pinning by the same owner is a no-op success.
func Pin(core int, owner string) error {
	mu.Lock()
	if existing, ok := assigned[core]; ok {
		mu.Unlock()
		if existing == owner {
			return nil
		}
		return fmt.Errorf("affinity: core %d already pinned to %s", core, existing)
	}
	assigned[core] = owner
	mu.Unlock()

	setAffinity(core)
	debug.Message("affinity", fmt.Sprintf("%s pinned to core %d", owner, core))
	return nil
}

// Assigned reports the current owner of core, if any.
func Assigned(core int) (string, bool) {
	mu.Lock()
	defer mu.Unlock()
	owner, ok := assigned[core]
	return owner, ok
}
