// Package bravo implements the BRAVO (Biased Locking for Reader-Writer
// Locks) algorithm: Dave Dice and Alex Kogan, "BRAVO: Biased Locking for
// Reader-Writer Locks," USENIX ATC 2019
// (https://www.usenix.org/conference/atc19/presentation/dice).
//
// BRAVO is an accelerator layered on top of a vanilla shared/exclusive
// lock: readers that hit their slot in a small per-mutex table skip the
// underlying lock entirely, while writers fall back to the underlying
// lock's own fairness and simply revoke the bias (drain any in-flight
// fast-path readers) before entering their critical section.
//
// This is a Go port of the C++ implementation at
// include/tsutil/Bravo.h in Apache Traffic Server, which is itself
// derived from puzpuzpuz/xsync's RBMutex
// (https://github.com/puzpuzpuz/xsync/blob/main/rbmutex.go).
package bravo

import (
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kolkov/bravolock/internal/fatalerr"
	"github.com/kolkov/bravolock/internal/threadid"
)

// DefaultSlotCount and DefaultSlowdownGuard match Bravo.h's template
// defaults (SLOT_SIZE = 256, SLOWDOWN_GUARD = 7).
const (
	DefaultSlotCount     = 256
	DefaultSlowdownGuard = 7
)

// maxSpinShift caps the exponential backoff shift used while a writer
// waits for a slot to drain. The original sleeps 1<<j nanoseconds with no
// cap, which grows unboundedly for long-lived readers; spec.md explicitly
// permits capping j without changing observable correctness. 1<<20ns is
// about 1ms, a reasonable ceiling between busy-waiting and oversleeping.
const maxSpinShift = 20

// RWLocker is the vanilla shared/exclusive lock BRAVO accelerates.
// *sync.RWMutex satisfies it; tests may substitute an instrumented
// implementation, matching spec.md's requirement that the underlying
// lock be swappable.
type RWLocker interface {
	Lock()
	TryLock() bool
	Unlock()
	RLock()
	TryRLock() bool
	RUnlock()
}

// Option configures a Mutex at construction time.
type Option[L RWLocker] func(*Mutex[L])

// WithSlowdownGuard overrides the default multiplier (7) applied to a
// revocation's duration when computing the bias-inhibit deadline.
func WithSlowdownGuard[L RWLocker](guard int64) Option[L] {
	return func(m *Mutex[L]) { m.slowdownGuard = guard }
}

// WithClock overrides the monotonic clock, letting tests inject a
// clockwork.FakeClock to deterministically exercise the inhibit-window
// property instead of sleeping in real time.
func WithClock[L RWLocker](clock clockwork.Clock) Option[L] {
	return func(m *Mutex[L]) { m.clock = clock }
}

// WithReporter overrides the fatal-error reporter.
func WithReporter[L RWLocker](reporter fatalerr.Reporter) Option[L] {
	return func(m *Mutex[L]) { m.reporter = reporter }
}

// WithThreadIDs overrides the DenseThreadId registry backing the reader
// fast path's slot index. Tests that want a small, deterministic set of
// fast-path slots construct their own *threadid.Registry with a small
// capacity rather than sharing the package-wide default.
func WithThreadIDs[L RWLocker](ids *threadid.Registry) Option[L] {
	return func(m *Mutex[L]) { m.ids = ids }
}

// Mutex is a biased reader/writer mutex. The zero value is not usable;
// construct with New. A Mutex must not be copied after first use — slot
// addresses are taken implicitly by goroutines indexing into readers, so
// the table must stay at a stable address.
type Mutex[L RWLocker] struct {
	_ [0]func() // prevent == comparison

	underlying L
	ids        *threadid.Registry
	clock      clockwork.Clock
	reporter   fatalerr.Reporter

	slotCount     int
	slowdownGuard int64

	readBias     atomic.Bool
	readers      []slot
	inhibitUntil atomic.Int64 // UnixNano of clock.Now(), per clockwork.Clock
}

// New constructs a Mutex with slotCount reader slots (default
// DefaultSlotCount if slotCount <= 0) wrapping underlying, which must be
// its zero value or otherwise ready to use (e.g. &sync.RWMutex{}).
func New[L RWLocker](underlying L, slotCount int, opts ...Option[L]) *Mutex[L] {
	if slotCount <= 0 {
		slotCount = DefaultSlotCount
	}

	m := &Mutex[L]{
		underlying:    underlying,
		slotCount:     slotCount,
		slowdownGuard: DefaultSlowdownGuard,
		readers:       make([]slot, slotCount),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.reporter == nil {
		m.reporter = fatalerr.NewProduction()
	}
	if m.ids == nil {
		m.ids = threadid.Default
	}
	return m
}

// checkSlotCount enforces spec.md's "SLOT_COUNT must be >=
// DenseThreadId::capacity()" precondition, checked on each fast-path
// entry as the original does via ink_assert.
func (m *Mutex[L]) checkSlotCount() {
	if capacity := m.ids.Capacity(); uint32(m.slotCount) < capacity {
		m.reporter.Fatalf("bravo: slot count smaller than thread-id capacity",
			zap.Int("slotCount", m.slotCount), zap.Uint32("capacity", capacity))
	}
}

// Lock acquires the mutex exclusively, blocking until no fast-path reader
// remains active. On return no fast-path reader holds any slot.
func (m *Mutex[L]) Lock() {
	m.underlying.Lock()
	m.revoke()
}

// TryLock attempts to acquire the mutex exclusively without blocking on
// the underlying lock. A successful try-lock still runs full revocation
// before returning true — the original's comment is explicit that
// returning success while a fast-path reader remains would violate the
// exclusive contract.
func (m *Mutex[L]) TryLock() bool {
	if !m.underlying.TryLock() {
		return false
	}
	m.revoke()
	return true
}

// Unlock releases the exclusive lock. read_bias stays false until a later
// reader re-enables it (subject to the inhibit deadline).
func (m *Mutex[L]) Unlock() {
	m.underlying.Unlock()
}

// LockShared acquires the mutex in shared mode, returning a token that
// identifies how: the fast path (a claimed slot) or the slow path (the sentinel 0,
// meaning the underlying lock is held directly).
func (m *Mutex[L]) LockShared() Token {
	m.checkSlotCount()

	if token, ok := m.tryFastPath(); ok {
		return token
	}

	// Slow path.
	m.underlying.RLock()
	m.maybeReenableBias()
	return slowPathToken
}

// TryLockShared is LockShared's non-blocking counterpart: the slow path
// uses TryRLock instead of RLock and returns false, leaving no lock held,
// if that fails. The fast path never blocks either way.
func (m *Mutex[L]) TryLockShared() (Token, bool) {
	m.checkSlotCount()

	if token, ok := m.tryFastPath(); ok {
		return token, true
	}

	if !m.underlying.TryRLock() {
		return slowPathToken, false
	}
	m.maybeReenableBias()
	return slowPathToken, true
}

// tryFastPath implements spec.md section 4.2.2. It is shared by
// LockShared and TryLockShared since neither the slot CAS nor the
// re-check ever block.
func (m *Mutex[L]) tryFastPath() (Token, bool) {
	if !m.readBias.Load() { // acquire
		return slowPathToken, false
	}

	index := m.ids.Self() % uint32(m.slotCount)
	s := &m.readers[index]

	if !s.occupied.CompareAndSwap(false, true) {
		return slowPathToken, false
	}

	// Re-check read_bias now that the slot is claimed. This is the crux
	// of the protocol: either a writer that set read_bias = false will
	// still observe this slot occupied during its revocation scan, or we
	// observe read_bias already false here and abandon the fast path —
	// one of the two must happen because the writer's store and this
	// reader's CAS cannot both miss each other.
	if !m.readBias.Load() { // acquire
		s.occupied.Store(false) // relaxed
		return slowPathToken, false
	}

	return Token(index + 1), true
}

// maybeReenableBias implements spec.md section 4.2.3 step 3. The store is
// unconditional on the two predicates and needs no CAS: the only other
// writer of read_bias is a mutex-writer, and a writer cannot be running
// concurrently with this shared holder.
func (m *Mutex[L]) maybeReenableBias() {
	if m.readBias.Load() { // acquire
		return
	}
	now := m.clock.Now().UnixNano()
	if now >= m.inhibitUntil.Load() {
		m.readBias.Store(true) // release
	}
}

// UnlockShared releases the shared hold identified by token.
func (m *Mutex[L]) UnlockShared(token Token) {
	if token == slowPathToken {
		m.underlying.RUnlock()
		return
	}
	m.readers[token-1].occupied.Store(false) // relaxed: a revoking writer only needs to see false eventually.
}

// revoke implements spec.md section 4.2.5: disable bias, drain every
// fast-path reader, then size the inhibit window off how long that took.
// Called with the underlying exclusive lock already held.
func (m *Mutex[L]) revoke() {
	if !m.readBias.Load() { // acquire
		return
	}

	m.readBias.Store(false) // release
	start := m.clock.Now()

	for i := range m.readers {
		s := &m.readers[i]
		for j := 0; s.occupied.Load(); j++ { // relaxed
			shift := j
			if shift > maxSpinShift {
				shift = maxSpinShift
			}
			time.Sleep(time.Duration(1) << shift)
		}
	}

	end := m.clock.Now()
	m.inhibitUntil.Store(end.Add(end.Sub(start) * time.Duration(m.slowdownGuard)).UnixNano())
}
