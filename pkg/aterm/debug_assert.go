//go:build aterm_debug

package aterm

// AssertProtected panics with [ErrNotProtected] if r's node is not
// currently reachable from any registered thread's protection set
// (strong, scoped, or container entries) and carries no external
// reference. It walks every thread's roots and their arguments like the
// collector's mark phase does, which makes it O(reachable nodes) rather
// than O(1) — acceptable for tests and
// debug builds, never called on the hot path a release build takes.
//
// Built only under the aterm_debug tag: the handle surface's lifetime
// contract (see [TermRef]) is a documentation-only guarantee in release
// builds, exactly as spec'd, and this assertion is the opt-in way to
// check it actually holds during development.
func AssertProtected(p *Pool, r TermRef) {
	if r.node.extRefs.Load() > 0 {
		return
	}

	p.threadsMu.Lock()
	threads := append([]*ThreadHandle(nil), p.threads...)
	p.threadsMu.Unlock()

	var stack []*Node
	for _, th := range threads {
		th.roots(func(n *Node) { stack = append(stack, n) })
	}

	seen := map[*Node]bool{}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n == r.node {
			return
		}

		if n != nil && !seen[n] {
			seen[n] = true
			stack = append(stack, n.args...)
		}
	}

	panic(ErrNotProtected)
}
