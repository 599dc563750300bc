package aterm

import "time"

// markStackOverflow is raised by mark when the explicit stack grows
// past cfg.MarkDepthLimit. A real violation here means either the
// limit is mis-tuned or the term graph is deeper than any legitimate
// caller would build, so this is treated the same way the pool treats
// any other corrupted-invariant condition: fatal, not a recoverable
// error, since continuing would mark (or fail to mark) an unknown
// subset of live terms.
type markStackOverflow struct {
	limit int
}

func (e markStackOverflow) Error() string {
	return "aterm: garbage collector mark stack exceeded configured depth limit"
}

// collect acquires the pool's exclusive lock and runs one full
// stop-the-world mark/sweep cycle. th must be the calling goroutine's
// own handle; its reader token is what LockExclusive quiesces every
// other reader against.
func (p *Pool) collect(th *ThreadHandle) {
	p.lock.LockExclusive(th.reader)
	defer p.lock.UnlockExclusive()

	p.collectLocked(th)
}

// collectLocked runs mark/sweep assuming the caller already holds the
// pool's exclusive lock (the fast path entered from
// [Pool.growIfNeededLocked], which would otherwise need a re-entrant
// acquisition the lock does not support).
func (p *Pool) collectLocked(_ *ThreadHandle) {
	markStart := time.Now()
	p.mark()
	markDur := time.Since(markStart)

	sweepStart := time.Now()
	p.sweep()
	sweepDur := time.Since(sweepStart)

	target := nextPow2(p.nodes.live*2 + 1)
	if target < p.cfg.InitialCapacity {
		target = p.cfg.InitialCapacity
	}

	p.nodes.rehash(target)

	p.metricsMu.Lock()
	p.collections++
	p.lastMark = markDur
	p.lastSweep = sweepDur
	p.metricsMu.Unlock()
}

// mark performs step 1-5 of the collection algorithm: push every root
// (every registered thread's strong handles, scoped stack, and
// container callbacks, plus every node with a non-zero external
// reference count), then iteratively pop and mark each node's
// arguments, using an explicit slice as the mark stack so collection
// never recurses on the Go call stack regardless of term depth.
func (p *Pool) mark() {
	var stack []*Node
	depth := 0

	push := func(n *Node) {
		if n == nil || n.mark.Load() {
			return
		}

		n.mark.Store(true)
		stack = append(stack, n)
		depth++

		if p.cfg.MarkDepthLimit > 0 && depth > p.cfg.MarkDepthLimit {
			panic(markStackOverflow{limit: p.cfg.MarkDepthLimit})
		}
	}

	p.threadsMu.Lock()
	threads := append([]*ThreadHandle(nil), p.threads...)
	p.threadsMu.Unlock()

	for _, th := range threads {
		th.roots(push)
	}

	for i := 0; i < len(p.nodes.buckets); i++ {
		n := p.nodes.buckets[i].node
		if n != nil && n != tombstone && n.extRefs.Load() > 0 {
			push(n)
		}
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		depth--

		for _, arg := range n.args {
			push(arg)
		}
	}
}

// sweep reclaims every unmarked node (tombstoning its bucket) and
// clears the mark bit on every surviving node so the next collection
// starts from a clean slate, the same "unmark on the way out" scheme
// as a conventional tracing collector.
func (p *Pool) sweep() {
	for i := range p.nodes.buckets {
		b := &p.nodes.buckets[i]
		if b.node == nil || b.node == tombstone {
			continue
		}

		if b.node.mark.Load() {
			b.node.mark.Store(false)
			continue
		}

		b.node = tombstone
		p.nodes.live--
		p.nodes.dead++
	}
}

func nextPow2(n int) int {
	if n < 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
