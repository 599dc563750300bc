package aterm

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcrl2/aterm/pkg/aterm/bflock"
)

// Pool is a shared term store: one hash-consing table, one interned
// symbol table, and the busy-forbidden lock that arbitrates access
// between however many goroutines have registered a [ThreadHandle].
// There is no package-level singleton; every caller constructs and owns
// its Pool explicitly via [Init], the same "no hidden global state"
// discipline the teacher repo applies to its own cache handle.
type Pool struct {
	lock    *bflock.Lock
	symbols *symbolTable
	nodes   *nodeTable

	threadsMu sync.Mutex
	threads   []*ThreadHandle

	reserved reservedSymbols
	cfg      Config

	autoGC atomic.Bool

	metricsMu   sync.Mutex
	collections uint64
	lastMark    time.Duration
	lastSweep   time.Duration

	bgStop chan struct{}
	bgDone chan struct{}
}

// Init builds a new, empty Pool from cfg and interns the reserved
// symbols every other operation assumes exist (the empty list, cons,
// the integer marker, and the derived-schema head symbols). If
// cfg.AutomaticGC is set and cfg.GCBackgroundInterval parses to a
// positive duration, a background goroutine is started to collect on
// that cadence; stop it with [Pool.Shutdown].
func Init(cfg Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		lock:  bflock.New(),
		nodes: newNodeTable(cfg.InitialCapacity),
		cfg:   cfg,
	}
	p.symbols = newSymbolTable(p)
	p.autoGC.Store(cfg.AutomaticGC)

	bootstrap := p.RegisterThread()
	p.reserved = internReserved(bootstrap, p.symbols)
	p.UnregisterThread(bootstrap)

	p.startBackground()

	return p, nil
}

// Shutdown stops the background collection goroutine, if one is
// running. It does not touch any registered thread's handles; callers
// are responsible for unregistering every [ThreadHandle] they created.
func (p *Pool) Shutdown() {
	if p.bgStop == nil {
		return
	}

	close(p.bgStop)
	<-p.bgDone
	p.bgStop = nil
}

func (p *Pool) startBackground() {
	if !p.cfg.AutomaticGC || p.cfg.GCBackgroundInterval == "" {
		return
	}

	interval, err := time.ParseDuration(p.cfg.GCBackgroundInterval)
	if err != nil || interval <= 0 {
		return
	}

	p.bgStop = make(chan struct{})
	p.bgDone = make(chan struct{})

	go p.backgroundLoop(interval)
}

func (p *Pool) backgroundLoop(interval time.Duration) {
	defer close(p.bgDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	th := p.RegisterThread()
	defer p.UnregisterThread(th)

	for {
		select {
		case <-p.bgStop:
			return
		case <-ticker.C:
			if p.autoGC.Load() {
				p.collect(th)
			}
		}
	}
}

// SetAutomaticGC toggles the load-factor and background collection
// triggers without touching anything already in the pool. The background
// goroutine is only started by [Init], so enabling automatic GC here on a
// pool created with it off turns on the load-factor trigger only.
func (p *Pool) SetAutomaticGC(enabled bool) { p.autoGC.Store(enabled) }

// CollectNow forces an immediate stop-the-world collection, regardless
// of the automatic-GC setting or current load factor.
func (p *Pool) CollectNow(th *ThreadHandle) { p.collect(th) }

// Size returns the number of nodes currently stored in the pool. Nodes
// that are no longer rooted still count until a collection sweeps them.
func (p *Pool) Size(th *ThreadHandle) int {
	th.reader.LockShared()
	defer th.reader.UnlockShared()

	return p.nodes.live
}

// Capacity returns the current bucket-array size of the term pool's
// hash-consing table.
func (p *Pool) Capacity(th *ThreadHandle) int {
	th.reader.LockShared()
	defer th.reader.UnlockShared()

	return len(p.nodes.buckets)
}

// PrintMetrics writes a human-readable snapshot of pool occupancy and
// collector history to w, in the same plain key: value style the
// teacher's own diagnostics command uses for its cache stats.
func (p *Pool) PrintMetrics(w io.Writer, th *ThreadHandle) error {
	th.reader.LockShared()
	live, dead, cap := p.nodes.live, p.nodes.dead, len(p.nodes.buckets)
	th.reader.UnlockShared()

	p.metricsMu.Lock()
	collections, lastMark, lastSweep := p.collections, p.lastMark, p.lastSweep
	p.metricsMu.Unlock()

	var loadFactor float64
	if cap > 0 {
		loadFactor = float64(live+dead) / float64(cap)
	}

	_, err := fmt.Fprintf(w,
		"live: %d\ntombstones: %d\ncapacity: %d\nload_factor: %.3f\ncollections: %d\nlast_mark: %s\nlast_sweep: %s\nauto_gc: %t\n",
		live, dead, cap, loadFactor, collections, lastMark, lastSweep, p.autoGC.Load(),
	)

	return err
}

// LockShared acquires shared access for th. Re-entrant on the same
// handle, matching the underlying reader token's semantics.
func (p *Pool) LockShared(th *ThreadHandle) { th.reader.LockShared() }

// UnlockShared releases one level of shared access for th, returning
// true once the handle is no longer inside any shared section.
func (p *Pool) UnlockShared(th *ThreadHandle) bool { return th.reader.UnlockShared() }

// LockExclusive acquires exclusive access to the whole pool. th must
// not already hold shared access on its own reader token.
func (p *Pool) LockExclusive(th *ThreadHandle) error { return p.lock.LockExclusive(th.reader) }

// UnlockExclusive releases exclusive access, permitting every
// registered reader to proceed again.
func (p *Pool) UnlockExclusive() { p.lock.UnlockExclusive() }

// Symbols returns every currently-interned symbol (refs > 0), in the
// order each was first created. Safe to call without any lock: it reads
// the symbol table's append-only creation log rather than its lookup
// map, so it never contends with concurrent interning.
func (p *Pool) Symbols() []*Symbol {
	all := p.symbols.byOrder.Snapshot()

	live := make([]*Symbol, 0, len(all))
	for _, s := range all {
		if s.refs.Load() > 0 {
			live = append(live, s)
		}
	}

	return live
}

// Intern returns the stable symbol for (name, arity), interning it on
// first use. The returned *Symbol is valid for the lifetime of the
// pool; release it with [Pool.ReleaseSymbol] once it is no longer
// needed, mirroring the explicit reference discipline the data model
// applies to every interned entity, not just terms.
func (p *Pool) Intern(th *ThreadHandle, name string, arity int) *Symbol {
	return p.symbols.intern(th, name, arity)
}

// ReleaseSymbol drops one reference obtained from [Pool.Intern].
func (p *Pool) ReleaseSymbol(th *ThreadHandle, sym *Symbol) {
	p.symbols.dropRef(th, sym)
}

// MakeApplication returns the (possibly pre-existing) term for sym
// applied to args, creating it only if no structurally equal node is
// already in the pool. This is the hash-consing entry point: two calls
// with the same sym and pointer-identical args always return handles
// to the same node, per invariant I1.
func (p *Pool) MakeApplication(th *ThreadHandle, sym *Symbol, args []TermRef) (OwnedTerm, error) {
	if sym.Arity() != len(args) {
		return OwnedTerm{}, ErrArityMismatch
	}

	nodes := make([]*Node, len(args))
	for i, a := range args {
		nodes[i] = a.node
	}

	th.reader.LockShared()
	if existing := p.nodes.lookupApplication(sym, nodes); existing != nil {
		th.reader.UnlockShared()
		return newOwned(th, existing), nil
	}
	th.reader.UnlockShared()

	p.lock.LockExclusive(th.reader)
	defer p.lock.UnlockExclusive()

	if existing := p.nodes.lookupApplication(sym, nodes); existing != nil {
		return newOwned(th, existing), nil
	}

	p.growIfNeededLocked(th)

	n := &Node{sym: sym, args: nodes}
	p.nodes.insert(hashApplication(sym, nodes), n)

	return newOwned(th, n), nil
}

// MakeInt returns the (possibly pre-existing) integer node for val.
func (p *Pool) MakeInt(th *ThreadHandle, val uint64) OwnedTerm {
	th.reader.LockShared()
	if existing := p.nodes.lookupInt(p.reserved.intHead, val); existing != nil {
		th.reader.UnlockShared()
		return newOwned(th, existing)
	}
	th.reader.UnlockShared()

	p.lock.LockExclusive(th.reader)
	defer p.lock.UnlockExclusive()

	if existing := p.nodes.lookupInt(p.reserved.intHead, val); existing != nil {
		return newOwned(th, existing)
	}

	p.growIfNeededLocked(th)

	n := &Node{sym: p.reserved.intHead, intVal: val}
	p.nodes.insert(hashInt(p.reserved.intHead, val), n)

	return newOwned(th, n)
}

// growIfNeededLocked triggers a collection (which rehashes as a side
// effect) when the table's load factor has crossed the configured
// threshold. Must be called while already holding the exclusive lock,
// since it inserts immediately afterward without releasing it.
func (p *Pool) growIfNeededLocked(th *ThreadHandle) {
	if !p.autoGC.Load() {
		return
	}

	if p.nodes.loadFactor() < p.cfg.GCLoadFactor {
		return
	}

	p.collectLocked(th)
}

// Scoped pins r for the duration of fn, using the scope-discipline root
// stack (P_t's scoped entries) instead of allocating a strong handle.
// This is the zero-handle-id path for "protect this argument just long
// enough to finish building its parent," the common case the spec
// calls out as not warranting a full [OwnedTerm].
func (p *Pool) Scoped(th *ThreadHandle, r TermRef, fn func()) {
	th.pushScoped(r.node)
	defer th.popScoped()

	fn()
}
