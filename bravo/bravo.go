// Package bravo exposes the BRAVO biased reader/writer mutex: a
// drop-in accelerator for a normal RWMutex that lets readers skip the
// underlying lock entirely while the lock has been predominantly read
// from recently, and falls back cleanly to vanilla RWMutex semantics
// under write pressure.
//
// This is the public face of internal/bravo, fixed to *sync.RWMutex as
// the underlying lock and wired to the shared process-wide dense
// thread-id space threadid exposes. Code that needs a different
// underlying lock type, an isolated thread-id space, or a fake clock
// for deterministic testing can import internal/bravo directly from
// within this module.
package bravo

import (
	"sync"

	ibravo "github.com/kolkov/bravolock/internal/bravo"
)

// Token is an opaque handle a shared-lock acquisition returns; pass it
// back to UnlockShared to release the matching hold.
type Token = ibravo.Token

// Mutex is a biased reader/writer mutex over *sync.RWMutex. The zero
// value is not usable; construct with New. A Mutex must not be copied
// after first use.
type Mutex = ibravo.Mutex[*sync.RWMutex]

// SharedLockGuard is an RAII-style guard around a shared-mode
// acquisition, for call sites that prefer defer guard.Unlock() (or
// defer guard.Close() for io.Closer symmetry) over juggling a Token.
type SharedLockGuard = ibravo.SharedLockGuard[*sync.RWMutex]

// Option configures a Mutex at construction time.
type Option = ibravo.Option[*sync.RWMutex]

// WithSlowdownGuard overrides the default multiplier (7) applied to a
// revocation's measured duration when computing how long bias stays
// inhibited afterward. A larger guard makes the mutex more cautious
// about re-biasing after an expensive revocation; DefaultSlowdownGuard
// matches the upstream default.
func WithSlowdownGuard(guard int64) Option {
	return ibravo.WithSlowdownGuard[*sync.RWMutex](guard)
}

// DefaultSlotCount and DefaultSlowdownGuard are the upstream defaults,
// re-exported for callers that want to reference them explicitly
// (e.g. when picking a larger slot count for a high fan-out workload).
const (
	DefaultSlotCount     = ibravo.DefaultSlotCount
	DefaultSlowdownGuard = ibravo.DefaultSlowdownGuard
)

// New constructs a Mutex with slotCount reader slots (DefaultSlotCount
// if slotCount <= 0), wrapping a fresh *sync.RWMutex. slotCount must be
// at least threadid.Capacity(), since every fast-path reader is routed
// to a slot by its dense thread id modulo slotCount; LockShared and
// TryLockShared enforce this at call time.
func New(slotCount int, opts ...Option) *Mutex {
	return ibravo.New[*sync.RWMutex](&sync.RWMutex{}, slotCount, opts...)
}

// NewSharedLockGuard constructs a guard in the "defer-lock" state: it
// remembers m but acquires nothing until Lock or TryLock is called.
func NewSharedLockGuard(m *Mutex) *SharedLockGuard {
	return ibravo.NewSharedLockGuard(m)
}

// LockSharedGuard constructs a guard and immediately locks it.
func LockSharedGuard(m *Mutex) *SharedLockGuard {
	return ibravo.LockSharedGuard(m)
}

// TryLockSharedGuard constructs a guard and attempts to lock it
// without blocking. Check the returned guard's OwnsLock to see whether
// it succeeded.
func TryLockSharedGuard(m *Mutex) *SharedLockGuard {
	return ibravo.TryLockSharedGuard(m)
}
