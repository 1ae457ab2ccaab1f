// Package threadid implements a process-wide allocator of small,
// recyclable, non-negative integer identifiers suitable for indexing a
// fixed-size array — the "dense thread id" DenseThreadId.h describes.
//
// Go has no user-visible OS threads and no thread-local destructors, so
// "thread" here means "goroutine," and the thread-exit hook the original
// gets for free from a thread_local destructor is, in this port, an
// explicit Release call. See DESIGN.md for that decision.
package threadid

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kolkov/bravolock/internal/fatalerr"
)

// DefaultCapacity is used when SetCapacity is never called, matching
// DenseThreadId.h's `_num_possible_values{256}` default.
const DefaultCapacity = 256

// Registry is the process-wide allocator state. The zero value is not
// ready for use; construct with NewRegistry.
type Registry struct {
	reporter fatalerr.Reporter

	mu            sync.Mutex
	inited        bool // free stack allocated, either explicitly or lazily defaulted
	explicitlySet bool // SetCapacity has been called successfully
	selfCalled    bool
	capacity      uint32
	freeStack  []uint32 // freeStack[i] is the next free index after i.
	top        uint32   // top == capacity means the stack is empty.

	cache sync.Map // goroutine id (int64) -> allocated index (uint32)
}

// NewRegistry constructs a Registry that reports contract violations
// through reporter.
func NewRegistry(reporter fatalerr.Reporter) *Registry {
	return &Registry{reporter: reporter}
}

// Default is the process-wide registry every public threadid function and
// every bravo.Mutex constructed without WithThreadIDs shares, matching
// DenseThreadId's description as process-wide static state: one dense-id
// space for the whole process, not one per mutex.
var Default = NewRegistry(fatalerr.NewProduction())

// SetCapacity is a one-shot configuration call. It must happen before any
// goroutine calls Self; calling it twice, calling it after the first
// Self, or passing n == 0 is a fatal contract violation.
func (r *Registry) SetCapacity(n uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.selfCalled {
		r.reporter.Fatalf("threadid: SetCapacity called after Self has already allocated an id")
		return
	}
	if r.explicitlySet {
		r.reporter.Fatalf("threadid: SetCapacity called more than once")
		return
	}
	if n == 0 {
		r.reporter.Fatalf("threadid: SetCapacity requires n > 0")
		return
	}
	r.initLocked(n)
	r.explicitlySet = true
}

// initLocked lazily initializes the free stack, matching DenseThreadId.h's
// _init(), called either by an explicit SetCapacity or by the first Self
// if SetCapacity was never called.
func (r *Registry) initLocked(n uint32) {
	r.capacity = n
	r.freeStack = make([]uint32, n)
	for i := range r.freeStack {
		r.freeStack[i] = uint32(i) + 1
	}
	r.top = 0
	r.inited = true
}

// Capacity returns the configured capacity, defaulting and initializing
// it to DefaultCapacity if nothing has configured it yet.
func (r *Registry) Capacity() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inited {
		r.initLocked(DefaultCapacity)
	}
	return r.capacity
}

// Self returns the calling goroutine's dense index, allocating one on
// first call and returning the cached value (a lock-free sync.Map read)
// on every subsequent call from the same goroutine.
func (r *Registry) Self() uint32 {
	gid := goroutineID()
	if v, ok := r.cache.Load(gid); ok {
		return v.(uint32)
	}
	return r.allocate(gid)
}

// allocate takes the top of the free stack for gid. Exhausting the stack
// is a fatal contract violation: the caller contract is that capacity was
// provisioned generously enough for the program's peak goroutine count.
func (r *Registry) allocate(gid int64) uint32 {
	r.mu.Lock()

	if !r.inited {
		r.initLocked(DefaultCapacity)
	}
	r.selfCalled = true

	if r.top == r.capacity {
		capacity := r.capacity
		r.mu.Unlock()
		r.reporter.Fatalf("threadid: number of live threads exceeded capacity",
			zap.Uint32("capacity", capacity))
		// Production reporters never return; testing reporters panic.
		// Either way this is unreachable.
		return 0
	}

	val := r.top
	r.top = r.freeStack[r.top]
	r.mu.Unlock()

	r.cache.Store(gid, val)
	return val
}

// Release returns the calling goroutine's index to the free stack. It is
// the explicit substitute for the original's thread-local destructor:
// any goroutine that called Self and will exit before the process does
// must defer Release, or its index is leaked for the process lifetime.
//
// Release on a goroutine that never called Self is a harmless no-op —
// unlike SetCapacity/Self misuse, there's no invariant to violate here,
// since defensively deferring Release is a reasonable pattern even in
// code paths that turn out not to touch a biased mutex.
func (r *Registry) Release() {
	gid := goroutineID()
	v, ok := r.cache.LoadAndDelete(gid)
	if !ok {
		return
	}
	idx := v.(uint32)

	r.mu.Lock()
	r.freeStack[idx] = r.top
	r.top = idx
	r.mu.Unlock()
}
