package bravo

// SharedLockGuard is an RAII-style guard around a shared-mode acquisition
// of a Mutex. Go has no destructors, so "on scope exit" means "whoever
// holds the guard calls Unlock," typically via defer — but the guard
// still tracks ownership precisely enough that a caller can use it
// through Lock/TryLock/Unlock/Swap/Release exactly as spec.md section
// 4.2.6 describes, and Close is provided as an alias for Unlock so the
// guard also satisfies io.Closer for defer-friendly call sites.
//
// A SharedLockGuard is not safe for concurrent use by multiple
// goroutines, and must not outlive the Mutex it borrows.
type SharedLockGuard[L RWLocker] struct {
	mutex *Mutex[L]
	token Token
	owns  bool
}

// NewSharedLockGuard constructs a guard in the "defer-lock" state: it
// remembers m but does not acquire anything until Lock or TryLock is
// called.
func NewSharedLockGuard[L RWLocker](m *Mutex[L]) *SharedLockGuard[L] {
	return &SharedLockGuard[L]{mutex: m}
}

// LockSharedGuard constructs a guard and immediately locks it.
func LockSharedGuard[L RWLocker](m *Mutex[L]) *SharedLockGuard[L] {
	g := NewSharedLockGuard(m)
	g.Lock()
	return g
}

// TryLockSharedGuard constructs a guard and attempts to lock it without
// blocking. Check OwnsLock to see whether it succeeded.
func TryLockSharedGuard[L RWLocker](m *Mutex[L]) *SharedLockGuard[L] {
	g := NewSharedLockGuard(m)
	g.TryLock()
	return g
}

// Lock acquires the mutex in shared mode, blocking if necessary. It is a
// fatal contract violation to call Lock on a guard that already owns a
// lock.
func (g *SharedLockGuard[L]) Lock() {
	if g.owns {
		g.mutex.reporter.Fatalf("bravo: SharedLockGuard.Lock called while already holding the lock")
		return
	}
	g.token = g.mutex.LockShared()
	g.owns = true
}

// TryLock attempts to acquire the mutex in shared mode without blocking,
// returning whether it succeeded.
func (g *SharedLockGuard[L]) TryLock() bool {
	if g.owns {
		g.mutex.reporter.Fatalf("bravo: SharedLockGuard.TryLock called while already holding the lock")
		return false
	}
	token, ok := g.mutex.TryLockShared()
	if ok {
		g.token = token
		g.owns = true
	}
	return ok
}

// Unlock releases the shared lock. It is a fatal contract violation to
// unlock a guard that doesn't hold one.
func (g *SharedLockGuard[L]) Unlock() {
	if !g.owns {
		g.mutex.reporter.Fatalf("bravo: SharedLockGuard.Unlock called on a guard that does not hold the lock")
		return
	}
	g.mutex.UnlockShared(g.token)
	g.owns = false
	g.token = slowPathToken
}

// Close is an alias for Unlock, only called if the guard still owns a
// lock — letting call sites write `defer guard.Close()` without tracking
// whether a prior explicit Unlock already ran.
func (g *SharedLockGuard[L]) Close() error {
	if g.owns {
		g.Unlock()
	}
	return nil
}

// Swap exchanges this guard's state (mutex, token and ownership) with
// other's. Neither guard is unlocked: a hold owned by either guard before
// the call is owned by the other one afterwards.
func (g *SharedLockGuard[L]) Swap(other *SharedLockGuard[L]) {
	g.mutex, other.mutex = other.mutex, g.mutex
	g.token, other.token = other.token, g.token
	g.owns, other.owns = other.owns, g.owns
}

// Release detaches the guard from its lock without unlocking it, handing
// responsibility for the eventual UnlockShared call to the caller, and
// returns the mutex it was borrowing. Release resets the guard's token, so
// the caller reads TokenValue before calling Release.
func (g *SharedLockGuard[L]) Release() *Mutex[L] {
	m := g.mutex
	g.mutex = nil
	g.token = slowPathToken
	g.owns = false
	return m
}

// OwnsLock reports whether the guard currently holds the lock.
func (g *SharedLockGuard[L]) OwnsLock() bool {
	return g.owns
}

// TokenValue returns the guard's current token, valid only while
// OwnsLock() is true.
func (g *SharedLockGuard[L]) TokenValue() Token {
	return g.token
}

// MutexRef returns the mutex this guard borrows (nil after Release).
func (g *SharedLockGuard[L]) MutexRef() *Mutex[L] {
	return g.mutex
}
