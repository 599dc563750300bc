package derived

import "github.com/mcrl2/aterm/pkg/aterm"

// IntTerm is a borrowed view of an integer node.
type IntTerm struct {
	ref aterm.TermRef
}

// IntSchema recognizes integer terms.
var IntSchema = NewSchema(
	func(p *aterm.Pool, r aterm.TermRef) bool { return r.IsInt(p) },
	func(r aterm.TermRef) IntTerm { return IntTerm{ref: r} },
)

// Value returns the wrapped integer's payload.
func (i IntTerm) Value(p *aterm.Pool) uint64 {
	v, _ := i.ref.AsInt(p)
	return v
}

// Ref returns the underlying borrowed term.
func (i IntTerm) Ref() aterm.TermRef { return i.ref }

// MakeInt builds an IntTerm-shaped owned handle for val.
func MakeInt(p *aterm.Pool, th *aterm.ThreadHandle, val uint64) aterm.OwnedTerm {
	return p.MakeInt(th, val)
}
