// Package threadid exposes a process-wide allocator of small, recyclable,
// non-negative integer identifiers suitable for indexing a fixed-size
// array. It is the public face of internal/threadid; see that package's
// doc comment for the rationale behind its Go-specific design choices.
package threadid

import (
	"github.com/kolkov/bravolock/internal/threadid"
)

// DefaultCapacity is the capacity used if SetCapacity is never called.
const DefaultCapacity = threadid.DefaultCapacity

// global is the same process-wide registry bravo.Mutex falls back to when
// constructed without WithThreadIDs, so the package-level functions here
// and the dense index a biased mutex's fast path claims come from one
// shared id space.
var global = threadid.Default

// SetCapacity is a one-shot configuration call that must happen before
// any goroutine calls Self. Calling it twice, calling it after Self has
// already been called, or passing n == 0 terminates the process.
func SetCapacity(n uint32) {
	global.SetCapacity(n)
}

// Self returns the calling goroutine's dense index in [0, Capacity()).
// The first call from a goroutine allocates; later calls from the same
// goroutine are served from a cache with no locking.
func Self() uint32 {
	return global.Self()
}

// Capacity returns the configured capacity.
func Capacity() uint32 {
	return global.Capacity()
}

// Release returns the calling goroutine's index to the pool. Any
// goroutine that called Self and is about to exit must defer Release, or
// its index is leaked for the remaining lifetime of the process — Go has
// no thread-local destructor to do this automatically.
func Release() {
	global.Release()
}
