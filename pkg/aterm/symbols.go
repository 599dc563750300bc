package aterm

import (
	"sync/atomic"
	"unsafe"

	"github.com/mcrl2/aterm/pkg/aterm/bflock"
)

// Symbol is an interned (name, arity) pair. Identity is by address: two
// symbols with the same name and arity are always the same *Symbol,
// which is what makes the head-symbol comparison in node hash-consing a
// pointer compare rather than a string compare.
type Symbol struct {
	name  string
	arity int

	// refs counts explicit interners (see Intern/drop). Reserved symbols
	// are interned once at pool construction and never reach zero.
	refs atomic.Int64
}

// Name returns the symbol's name.
func (s *Symbol) Name() string { return s.name }

// Arity returns the symbol's arity.
func (s *Symbol) Arity() int { return s.arity }

func symbolAddr(s *Symbol) uintptr {
	return uintptr(unsafe.Pointer(s)) //nolint:gosec // pointer identity only, never dereferenced from the int
}

// symbolKey is the hash-set key for the symbol table: (name, arity).
type symbolKey struct {
	name  string
	arity int
}

// symbolTable is the process-wide (per-Pool) interned symbol set
// described by C2. Reads run under the pool's shared lock; insertion
// upgrades to exclusive, mirroring the term pool's own promotion
// discipline in pool.go.
type symbolTable struct {
	pool *Pool

	byKey map[symbolKey]*Symbol

	// byOrder records every symbol ever interned, in creation order, for
	// the lock-free enumeration path ([Pool.Symbols]): a diagnostic
	// reader can snapshot the whole set without taking the pool's shared
	// lock at all, the same bf-vector trick bflock documents for a
	// read-mostly append-only index.
	byOrder *bflock.Vector[*Symbol]
}

func newSymbolTable(pool *Pool) *symbolTable {
	return &symbolTable{
		pool:    pool,
		byKey:   make(map[symbolKey]*Symbol),
		byOrder: bflock.NewVector[*Symbol](),
	}
}

// intern returns the stable *Symbol for (name, arity), creating it if
// necessary, and increments its reference count. Concurrent callers race
// to create at most one Symbol for any given key: the table is only ever
// mutated under the pool's exclusive lock.
func (t *symbolTable) intern(th *ThreadHandle, name string, arity int) *Symbol {
	key := symbolKey{name: name, arity: arity}

	th.reader.LockShared()

	if s, ok := t.byKey[key]; ok {
		s.refs.Add(1)
		th.reader.UnlockShared()

		return s
	}

	th.reader.UnlockShared()

	t.pool.lock.LockExclusive(th.reader)
	defer t.pool.lock.UnlockExclusive()

	if s, ok := t.byKey[key]; ok {
		s.refs.Add(1)
		return s
	}

	s := &Symbol{name: name, arity: arity}
	s.refs.Store(1)
	t.byKey[key] = s
	t.byOrder.Append(s)

	return s
}

// dropRef decrements sym's reference count and, if it reaches zero,
// removes it from the table. Reserved symbols are interned with a
// permanent extra reference so they are never eligible for removal.
func (t *symbolTable) dropRef(th *ThreadHandle, sym *Symbol) {
	if sym.refs.Add(-1) > 0 {
		return
	}

	t.pool.lock.LockExclusive(th.reader)
	defer t.pool.lock.UnlockExclusive()

	key := symbolKey{name: sym.name, arity: sym.arity}
	if cur, ok := t.byKey[key]; ok && cur == sym && sym.refs.Load() <= 0 {
		delete(t.byKey, key)
	}
}

// reservedSymbols holds the handful of built-in symbols every pool
// interns at construction and never frees: the empty-list marker, the
// list-cons constructor, the integer-node marker, and the data
// expression head symbols used by [pkg/aterm/derived].
type reservedSymbols struct {
	emptyList *Symbol // "[]", arity 0
	cons      *Symbol // "Cons", arity 2
	intHead   *Symbol // "@int", arity 0 (never applied; marks integer nodes)

	variable    *Symbol // "Var", arity 1 (name carried as an int-node argument slot)
	application *Symbol // "Apply", arity 2
	lambda      *Symbol // "Lambda", arity 2
	forall      *Symbol // "Forall", arity 2
	exists      *Symbol // "Exists", arity 2
	where       *Symbol // "Where", arity 2
}

func internReserved(th *ThreadHandle, t *symbolTable) reservedSymbols {
	mk := func(name string, arity int) *Symbol {
		return t.intern(th, name, arity)
	}

	return reservedSymbols{
		emptyList:   mk("[]", 0),
		cons:        mk("Cons", 2),
		intHead:     mk("@int", 0),
		variable:    mk("Var", 1),
		application: mk("Apply", 2),
		lambda:      mk("Lambda", 2),
		forall:      mk("Forall", 2),
		exists:      mk("Exists", 2),
		where:       mk("Where", 2),
	}
}
