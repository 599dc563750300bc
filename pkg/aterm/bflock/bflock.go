// Package bflock implements the "busy-forbidden" readers-writer protocol:
// a reader-biased lock where the fast path touches only per-reader memory.
//
// Real readers-writer locks funnel every acquisition through one shared
// cache line (a counter, a semaphore). That is fine when reads and writes
// are comparable in number; it is disastrous when reads outnumber writes
// 1000:1 across many cores, because every reader bounces the same line.
//
// busy-forbidden avoids this by giving each registered reader its own pair
// of flags, busy and forbidden. A reader announces itself by setting its
// own busy flag, then checks its own forbidden flag — two independent
// memory locations per reader, no shared state on the fast path. A writer
// that wants exclusive access sets forbidden on every registered reader
// and then spins until each one reports not busy.
//
//	Request X      |   Yes    |    No     |    No     |     No     |     No
//	(state matrix mirrors the one in the owning package's lock design doc)
package bflock

import (
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// ErrReentrantExclusive is returned when a reader holding shared access on
// its own token attempts to acquire the lock's exclusive side. This is a
// programming error: a thread blocked waiting on its own forbidden flag
// would deadlock with itself.
var ErrReentrantExclusive = errors.New("bflock: cannot acquire exclusive access while holding shared access")

// Lock is the process-wide (or per-structure) busy-forbidden
// readers-writer lock. The zero value is not usable; use New.
type Lock struct {
	mu      sync.Mutex // guards readers and notify
	readers []*ReaderToken
	notify  chan struct{} // closed and replaced whenever a writer releases

	// writerMu serializes writers against each other. The busy/forbidden
	// handshake only ever excludes readers from a single writer; without
	// this, two concurrent LockExclusive callers would both observe all
	// readers quiet and both believe they hold exclusive access.
	writerMu sync.Mutex
}

// New returns a ready-to-use Lock with no registered readers.
func New() *Lock {
	return &Lock{notify: make(chan struct{})}
}

// ReaderToken is a per-reader registration. A goroutine must Register once
// and reuse the returned token for every subsequent shared acquisition; it
// must not be shared across goroutines, since the recursion depth and the
// busy/forbidden flags are meaningful only for a single logical reader.
type ReaderToken struct {
	lock *Lock

	// busy and forbidden form the two-flag handshake described in the
	// package doc. Both live on this token, never on shared state, which
	// is what keeps LockShared/UnlockShared free of cross-reader
	// contention.
	busy      atomic.Bool
	forbidden atomic.Bool

	// depth supports the recursive variant: nested LockShared calls on
	// the same token are free after the first.
	depth int
}

// Register creates and returns a new reader token, adding it to the set
// of readers a future exclusive acquisition must quiesce.
func (l *Lock) Register() *ReaderToken {
	t := &ReaderToken{lock: l}

	l.mu.Lock()
	l.readers = append(l.readers, t)
	l.mu.Unlock()

	return t
}

// Unregister removes a reader token. The token must not be holding shared
// access. Safe to call at goroutine teardown.
func (l *Lock) Unregister(t *ReaderToken) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, r := range l.readers {
		if r == t {
			l.readers = append(l.readers[:i], l.readers[i+1:]...)
			return
		}
	}
}

// LockShared acquires shared (read) access for this token. Re-entrant:
// calling it again on a token that already holds shared access is free
// and only bumps a depth counter.
func (t *ReaderToken) LockShared() {
	if t.depth > 0 {
		t.depth++
		return
	}

	for {
		t.busy.Store(true)

		if !t.forbidden.Load() {
			// Acquisition complete: no writer currently wants exclusive
			// access, and we've announced our presence before checking,
			// so any writer that arrives after this point will see us
			// busy and wait.
			t.depth = 1
			return
		}

		// A writer has (or is about to) set forbidden. Retreat
		// immediately so we don't block it, then wait for forbidden to
		// clear before retrying.
		t.busy.Store(false)
		t.waitUntilPermitted()
	}
}

// waitUntilPermitted blocks the calling goroutine until forbidden clears,
// yielding the OS thread between polls rather than busy-spinning
// uncooperatively. A real kernel scheduler rewards a reader that gets out
// of a waiting writer's way immediately, which is what keeps a writer
// from being starved by readers.
func (t *ReaderToken) waitUntilPermitted() {
	for t.forbidden.Load() {
		select {
		case <-t.lock.waitChan():
		default:
			_ = unix.Sched_yield()
		}
	}
}

// waitChan returns the current notification channel, closed by the next
// UnlockExclusive. Readers select on it opportunistically to avoid pure
// spinning when a writer is slow to finish.
func (l *Lock) waitChan() <-chan struct{} {
	l.mu.Lock()
	ch := l.notify
	l.mu.Unlock()

	return ch
}

// UnlockShared releases shared access for this token. Returns true if the
// token is no longer in a shared critical section (depth reached zero),
// false if a recursive acquisition is still outstanding.
func (t *ReaderToken) UnlockShared() bool {
	if t.depth > 1 {
		t.depth--
		return false
	}

	t.depth = 0
	t.busy.Store(false)

	return true
}

// LockExclusive acquires exclusive (write) access for the whole lock. The
// calling goroutine must not already hold shared access on any token
// registered with this lock, or the wait below would deadlock with itself.
//
// Readers are forbidden in registration order to avoid convoy effects
// where every writer fights over the same first reader.
func (l *Lock) LockExclusive(self *ReaderToken) error {
	if self != nil && self.depth > 0 {
		return ErrReentrantExclusive
	}

	l.writerMu.Lock()

	l.mu.Lock()
	readers := append([]*ReaderToken(nil), l.readers...)
	l.mu.Unlock()

	for _, r := range readers {
		r.forbidden.Store(true)
	}

	for _, r := range readers {
		for r.busy.Load() {
			_ = unix.Sched_yield()
		}
	}

	return nil
}

// UnlockExclusive releases exclusive access, clearing forbidden on every
// registered reader and waking anyone waiting on the notification
// channel.
func (l *Lock) UnlockExclusive() {
	l.mu.Lock()
	readers := append([]*ReaderToken(nil), l.readers...)
	old := l.notify
	l.notify = make(chan struct{})
	l.mu.Unlock()

	for _, r := range readers {
		r.forbidden.Store(false)
	}

	close(old)

	l.writerMu.Unlock()
}
