package aterm

// TermVector is the bulk-protected container from C6: an owner that
// registers a single callback in its thread's protection set and
// internally stores raw node pointers, so pinning tens of thousands of
// terms costs one root instead of one per term.
//
// A TermVector is not safe for concurrent use and must only be touched
// from the goroutine that owns th, the same rule every other
// protection-set-backed type in this package follows.
type TermVector struct {
	th    *ThreadHandle
	token int
	nodes []*Node
}

// NewTermVector creates an empty, rooted container owned by th.
func NewTermVector(th *ThreadHandle) *TermVector {
	v := &TermVector{th: th}
	v.token = th.registerContainer(func(push func(*Node)) {
		for _, n := range v.nodes {
			push(n)
		}
	})

	return v
}

// Push appends a borrowed or owned term's underlying node to the
// container, extending the container's single root to cover it.
func (v *TermVector) Push(r TermRef) {
	v.nodes = append(v.nodes, r.node)
}

// Len returns the number of terms stored.
func (v *TermVector) Len() int { return len(v.nodes) }

// At returns a borrowed reference to the i-th stored term, valid for as
// long as the container itself is alive.
func (v *TermVector) At(i int) TermRef { return TermRef{node: v.nodes[i]} }

// Close unregisters the container's root callback. After Close, any
// TermRef obtained from At is no longer known-live and must not be used
// unless some other root also pins its node.
func (v *TermVector) Close() {
	v.th.unregisterContainer(v.token)
	v.nodes = nil
}
