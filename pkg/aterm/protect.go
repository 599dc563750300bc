package aterm

import (
	"github.com/mcrl2/aterm/pkg/aterm/bflock"
)

// markCallback enumerates additional roots during a collection. push
// must be called once per root the container wants pinned; it is only
// valid for the duration of the call.
type markCallback func(push func(*Node))

// ThreadHandle is a goroutine's registration with the pool: the Go
// analogue of the spec's per-thread protection set P_t. Go has no
// goroutine-local storage, so unlike a thread-local P_t, a ThreadHandle
// is an explicit value the caller must thread through, the same
// discipline as a context.Context. Using one concurrently from two
// goroutines is a misuse this package does not detect, matching the
// spec's stance that invariant violations are programming errors.
//
// A handle creation/destruction (Clone/Drop of an OwnedTerm) only ever
// touches this struct's own fields. No mutex guards them: the owning
// goroutine is the only writer on the fast path, and the collector only
// ever reads a handle's fields while holding the pool's exclusive lock,
// which is only possible once this goroutine's reader token is quiet —
// i.e. not concurrently mutating. This mirrors the "no cross-thread
// synchronization on the common path" contract in the spec exactly.
type ThreadHandle struct {
	pool   *Pool
	reader *bflock.ReaderToken

	strong       map[uint64]*Node
	nextHandleID uint64

	scoped []*Node

	containers []markCallback

	closed bool
}

// RegisterThread registers the calling goroutine with the pool, returning
// a handle that must be passed to every subsequent pool operation the
// goroutine performs, and released with UnregisterThread at teardown.
func (p *Pool) RegisterThread() *ThreadHandle {
	th := &ThreadHandle{
		pool:   p,
		reader: p.lock.Register(),
		strong: make(map[uint64]*Node),
	}

	p.threadsMu.Lock()
	p.threads = append(p.threads, th)
	p.threadsMu.Unlock()

	return th
}

// UnregisterThread removes handle from the pool's set of known threads.
// The handle must hold no strong roots, scoped roots, or registered
// containers; callers are expected to Drop everything first, matching
// the teacher's own "thread teardown requires unregistering" discipline
// applied to its file-registry entries.
func (p *Pool) UnregisterThread(th *ThreadHandle) {
	th.closed = true

	p.threadsMu.Lock()

	for i, t := range p.threads {
		if t == th {
			p.threads = append(p.threads[:i], p.threads[i+1:]...)
			break
		}
	}

	p.threadsMu.Unlock()

	p.lock.Unregister(th.reader)
}

// pinStrong registers n as a strong root under th, returning the handle
// id the caller (an OwnedTerm) must remember to release it later.
func (th *ThreadHandle) pinStrong(n *Node) uint64 {
	id := th.nextHandleID
	th.nextHandleID++
	th.strong[id] = n

	return id
}

func (th *ThreadHandle) unpinStrong(id uint64) {
	delete(th.strong, id)
}

// pushScoped records n on the scope-discipline root stack. Callers pop
// it on scope exit via popScoped.
func (th *ThreadHandle) pushScoped(n *Node) {
	th.scoped = append(th.scoped, n)
}

func (th *ThreadHandle) popScoped() {
	th.scoped = th.scoped[:len(th.scoped)-1]
}

// registerContainer adds cb to the thread's container callbacks,
// returning a token that unregisterContainer accepts to remove it.
func (th *ThreadHandle) registerContainer(cb markCallback) int {
	th.containers = append(th.containers, cb)
	return len(th.containers) - 1
}

func (th *ThreadHandle) unregisterContainer(token int) {
	if token < 0 || token >= len(th.containers) {
		return
	}

	th.containers[token] = nil
}

// roots invokes push once for every node directly rooted by this
// thread: strong handles, scoped handles, and whatever each registered
// container callback reports. Only called by the collector while
// holding the pool's exclusive lock, which is what makes reading
// another goroutine's ThreadHandle safe here.
func (th *ThreadHandle) roots(push func(*Node)) {
	for _, n := range th.strong {
		push(n)
	}

	for _, n := range th.scoped {
		push(n)
	}

	for _, cb := range th.containers {
		if cb != nil {
			cb(push)
		}
	}
}
