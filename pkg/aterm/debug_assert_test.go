//go:build aterm_debug

package aterm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_AssertProtected_Passes_For_A_Rooted_Term(t *testing.T) {
	pool, th := newTestPool(t)

	owned := pool.MakeInt(th, 7)
	defer owned.Drop()

	require.NotPanics(t, func() { AssertProtected(pool, owned.Ref()) })
}

func Test_AssertProtected_Panics_For_An_Unrooted_Term(t *testing.T) {
	pool, th := newTestPool(t)

	owned := pool.MakeInt(th, 8)
	ref := owned.Ref()
	owned.Drop()

	require.Panics(t, func() { AssertProtected(pool, ref) })
}
