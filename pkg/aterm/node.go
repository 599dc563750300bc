package aterm

import (
	"sync/atomic"
	"unsafe"
)

// nodeAddr returns the node's pointer identity as an opaque, comparable
// value. Used only for hashing and for the public address_of primitive;
// the value is never dereferenced back into a *Node.
func nodeAddr(n *Node) uintptr {
	return uintptr(unsafe.Pointer(n)) //nolint:gosec // pointer identity only
}

// Node is an immutable term node living in the pool's hash-consing
// table. Application nodes carry a head symbol and its arguments;
// integer nodes carry a single uint64 payload under the reserved integer
// symbol. Lists are not a distinct node shape — per invariant I3 a
// node's shape is determined solely by its head symbol, and the empty
// list / cons constructors are just applications of reserved symbols.
//
// Nodes are never mutated except for mark, which only the collector
// touches, and only while holding the pool's exclusive lock.
type Node struct {
	sym  *Symbol
	args []*Node // len(args) == sym.arity for applications; nil for ints

	intVal uint64 // valid only when sym is the reserved integer symbol

	// mark is the 1-bit GC flag from the data model. Stored as an
	// atomic.Bool only so the zero value (unmarked) is always correct;
	// every access happens while the collector holds the pool's
	// exclusive lock, so there is no actual concurrent access to race on.
	mark atomic.Bool

	// extRefs is the explicit reference count from invariant I4, for
	// holders outside every thread's protection set. [OwnedTerm] and
	// [TermVector] do not change it; they root nodes through the
	// protection set instead. A node with extRefs > 0 survives a
	// collection even with no protection-set root, per the "externally
	// protected" edge case in the garbage collector's spec.
	extRefs atomic.Int32
}

// Symbol returns the node's head symbol.
func (n *Node) Symbol() *Symbol { return n.sym }

// Arity returns the number of arguments (0 for integers and constants).
func (n *Node) Arity() int { return len(n.args) }

// Argument returns the i-th argument. Panics if i is out of range; see
// [ErrInvalidArgument] for the checked variant used by the public handle
// surface.
func (n *Node) Argument(i int) *Node { return n.args[i] }

// IsInt reports whether n is an integer node.
func (n *Node) IsInt(rs reservedSymbols) bool { return n.sym == rs.intHead }

// IntValue returns the node's integer payload. Only meaningful when
// IsInt is true.
func (n *Node) IntValue() uint64 { return n.intVal }

// IsEmptyList reports whether n is the reserved empty-list constant.
func (n *Node) IsEmptyList(rs reservedSymbols) bool { return n.sym == rs.emptyList }

// IsList reports whether n is either the empty list or a cons cell.
func (n *Node) IsList(rs reservedSymbols) bool {
	return n.sym == rs.emptyList || n.sym == rs.cons
}
