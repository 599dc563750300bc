package aterm

// OwnedTerm is a strong handle: it owns one entry in its creating
// thread's protection set (P_t.strong) and keeps the referenced node
// alive across collections. The zero value is not usable; obtain one
// from [Pool.MakeApplication], [Pool.MakeInt], [Pool.FromText],
// [TermRef.Reify], or [OwnedTerm.Clone].
//
// Equality between two OwnedTerm values is pointer equality on the
// underlying node, per invariant I1 (maximal sharing): use
// [OwnedTerm.Equal], never compare the struct values directly, since two
// OwnedTerm values naming the same node still have distinct handle ids.
type OwnedTerm struct {
	th   *ThreadHandle
	node *Node
	id   uint64
}

// newOwned pins n in th's strong root set and returns the resulting
// handle. th must be the calling goroutine's own handle.
func newOwned(th *ThreadHandle, n *Node) OwnedTerm {
	return OwnedTerm{th: th, node: n, id: th.pinStrong(n)}
}

// Clone creates a second strong handle to the same node, registering a
// new entry in the owning thread's protection set. Cloning is how an
// OwnedTerm is "moved" across an API boundary that wants its own
// ownership without touching the node's reference count.
func (o OwnedTerm) Clone() OwnedTerm {
	return newOwned(o.th, o.node)
}

// Drop releases this handle's protection-set entry. After Drop, o must
// not be used again. Handle ids are never reused within a thread, so a
// second Drop of the same value removes nothing.
func (o OwnedTerm) Drop() {
	o.th.unpinStrong(o.id)
}

// Ref returns a borrowed view of this handle, valid for at least as long
// as o itself has not been Dropped.
func (o OwnedTerm) Ref() TermRef {
	return TermRef{node: o.node}
}

// Equal reports whether o and other name the same node (pointer
// identity, per I1).
func (o OwnedTerm) Equal(other OwnedTerm) bool { return o.node == other.node }

// Symbol, Arity, Arg, IsList, IsEmptyList, IsInt, AsInt delegate to
// the borrowed view; see [TermRef] for documentation.
func (o OwnedTerm) Symbol() *Symbol                 { return o.Ref().Symbol() }
func (o OwnedTerm) Arity() int                      { return o.Ref().Arity() }
func (o OwnedTerm) Arg(i int) (TermRef, error)      { return o.Ref().Arg(i) }
func (o OwnedTerm) IsList(p *Pool) bool             { return o.Ref().IsList(p) }
func (o OwnedTerm) IsEmptyList(p *Pool) bool        { return o.Ref().IsEmptyList(p) }
func (o OwnedTerm) IsInt(p *Pool) bool              { return o.Ref().IsInt(p) }
func (o OwnedTerm) AsInt(p *Pool) (uint64, bool)    { return o.Ref().AsInt(p) }

// TermRef is a borrowed handle: a bare node pointer with no protection-set
// entry of its own. Go has no lifetime parameters, so the spec's
// "compile-time lifetime bound to some strong handle or protected
// container" is a documentation contract here rather than something the
// compiler enforces: a TermRef is only valid for as long as some
// OwnedTerm, scoped acquisition, or TermVector that transitively pins
// its node remains alive. Creating a TermRef never touches any thread's
// protection set.
type TermRef struct {
	node *Node
}

// Symbol returns the node's head symbol.
func (r TermRef) Symbol() *Symbol { return r.node.Symbol() }

// Arity returns the node's argument count.
func (r TermRef) Arity() int { return r.node.Arity() }

// Arg returns the i-th argument as a borrowed reference with the same
// lifetime contract as r. Returns [ErrInvalidArgument] if i is out of
// range.
func (r TermRef) Arg(i int) (TermRef, error) {
	if i < 0 || i >= r.node.Arity() {
		return TermRef{}, ErrInvalidArgument
	}

	return TermRef{node: r.node.Argument(i)}, nil
}

// IsList reports whether r is the empty list or a cons cell.
func (r TermRef) IsList(p *Pool) bool { return r.node.IsList(p.reserved) }

// IsEmptyList reports whether r is the reserved empty-list constant.
func (r TermRef) IsEmptyList(p *Pool) bool { return r.node.IsEmptyList(p.reserved) }

// IsInt reports whether r is an integer node.
func (r TermRef) IsInt(p *Pool) bool { return r.node.IsInt(p.reserved) }

// AsInt returns the node's integer payload and true if r is an integer
// node, or (0, false) otherwise.
func (r TermRef) AsInt(p *Pool) (uint64, bool) {
	if !r.IsInt(p) {
		return 0, false
	}

	return r.node.IntValue(), true
}

// Reify is the cheap-return wrapper: it upgrades a borrow to a strong
// handle owned by th, performing exactly one protection-set insertion.
// Used at API boundaries where the caller wants ownership of what was
// previously only a borrow (e.g. returning an argument from a function
// that also accepts a borrowed receiver).
func (r TermRef) Reify(th *ThreadHandle) OwnedTerm {
	return newOwned(th, r.node)
}

// addressOf returns an opaque, comparable value uniquely identifying a
// term's node. This is the spec's address_of primitive: the only
// sanctioned way to obtain a raw identity from a handle, replacing the
// UB-prone "leak a wrapped symbol" casts the spec flags as a source bug
// to fix rather than carry forward.
func addressOf(n *Node) uintptr { return nodeAddr(n) }

// AddressOf exposes addressOf for borrowed handles.
func (r TermRef) AddressOf() uintptr { return addressOf(r.node) }

// AddressOf exposes addressOf for strong handles.
func (o OwnedTerm) AddressOf() uintptr { return addressOf(o.node) }
