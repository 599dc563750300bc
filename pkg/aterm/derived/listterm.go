package derived

import "github.com/mcrl2/aterm/pkg/aterm"

// ListTerm is a borrowed view of a term known to be either the empty
// list or a Cons cell.
type ListTerm struct {
	ref aterm.TermRef
}

// ListSchema recognizes list terms (empty or Cons).
var ListSchema = NewSchema(
	func(p *aterm.Pool, r aterm.TermRef) bool { return r.IsList(p) },
	func(r aterm.TermRef) ListTerm { return ListTerm{ref: r} },
)

// Empty reports whether l is the empty-list constant.
func (l ListTerm) Empty(p *aterm.Pool) bool { return l.ref.IsEmptyList(p) }

// Head returns the Cons cell's first argument. Only valid when !Empty.
func (l ListTerm) Head() (aterm.TermRef, error) { return l.ref.Arg(0) }

// Tail returns the Cons cell's rest-of-list argument, itself a
// ListTerm. Only valid when !Empty.
func (l ListTerm) Tail() (aterm.TermRef, error) { return l.ref.Arg(1) }

// Ref returns the underlying borrowed term.
func (l ListTerm) Ref() aterm.TermRef { return l.ref }

// MakeNil returns the (shared) empty-list constant.
func MakeNil(p *aterm.Pool, th *aterm.ThreadHandle) aterm.OwnedTerm {
	return p.MakeApplication0(th, p.EmptyListSymbol())
}

// MakeCons builds head :: tail.
func MakeCons(p *aterm.Pool, th *aterm.ThreadHandle, head, tail aterm.TermRef) (aterm.OwnedTerm, error) {
	return p.MakeApplication(th, p.ConsSymbol(), []aterm.TermRef{head, tail})
}

// MakeList builds the list of elems, right-to-left, terminating in the
// empty-list constant. The caller retains ownership of each element in
// elems; MakeList only borrows them.
func MakeList(p *aterm.Pool, th *aterm.ThreadHandle, elems []aterm.TermRef) (aterm.OwnedTerm, error) {
	result := MakeNil(p, th)

	for i := len(elems) - 1; i >= 0; i-- {
		next, err := MakeCons(p, th, elems[i], result.Ref())
		result.Drop()
		if err != nil {
			return aterm.OwnedTerm{}, err
		}
		result = next
	}

	return result, nil
}
