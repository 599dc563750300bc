package derived_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcrl2/aterm/pkg/aterm"
	"github.com/mcrl2/aterm/pkg/aterm/derived"
)

func newTestPool(t *testing.T) (*aterm.Pool, *aterm.ThreadHandle) {
	t.Helper()

	pool, err := aterm.Init(aterm.DefaultConfig())
	require.NoError(t, err)

	th := pool.RegisterThread()

	t.Cleanup(func() {
		pool.UnregisterThread(th)
		pool.Shutdown()
	})

	return pool, th
}

func Test_IntSchema_Recognizes_Integers_Only(t *testing.T) {
	pool, th := newTestPool(t)

	i := derived.MakeInt(pool, th, 5)
	defer i.Drop()

	require.True(t, derived.IntSchema.Is(pool, i.Ref()))

	wrapped, ok := derived.IntSchema.TryWrap(pool, i.Ref())
	require.True(t, ok)
	require.Equal(t, uint64(5), wrapped.Value(pool))

	sym := pool.Intern(th, "notanint", 0)
	defer pool.ReleaseSymbol(th, sym)

	other, err := pool.MakeApplication(th, sym, nil)
	require.NoError(t, err)
	defer other.Drop()

	require.False(t, derived.IntSchema.Is(pool, other.Ref()))
}

func Test_ListTerm_Walks_Cons_Chain(t *testing.T) {
	pool, th := newTestPool(t)

	one := pool.MakeInt(th, 1)
	defer one.Drop()
	two := pool.MakeInt(th, 2)
	defer two.Drop()

	owned, err := derived.MakeList(pool, th, []aterm.TermRef{one.Ref(), two.Ref()})
	require.NoError(t, err)
	defer owned.Drop()

	list, ok := derived.ListSchema.TryWrap(pool, owned.Ref())
	require.True(t, ok)
	require.False(t, list.Empty(pool))

	head, err := list.Head()
	require.NoError(t, err)
	val, ok := head.AsInt(pool)
	require.True(t, ok)
	require.Equal(t, uint64(1), val)

	tailRef, err := list.Tail()
	require.NoError(t, err)

	tail, ok := derived.ListSchema.TryWrap(pool, tailRef)
	require.True(t, ok)
	require.False(t, tail.Empty(pool))

	nilTerm := derived.MakeNil(pool, th)
	defer nilTerm.Drop()

	nilWrapped, ok := derived.ListSchema.TryWrap(pool, nilTerm.Ref())
	require.True(t, ok)
	require.True(t, nilWrapped.Empty(pool))
}

func Test_DataExpr_Kind_Classifies_Reserved_Shapes(t *testing.T) {
	pool, th := newTestPool(t)

	name := pool.MakeInt(th, 1) // stand-in name payload
	defer name.Drop()

	v, err := derived.MakeVariable(pool, th, name.Ref())
	require.NoError(t, err)
	defer v.Drop()

	de, ok := derived.DataExprSchema.TryWrap(pool, v.Ref())
	require.True(t, ok)
	require.Equal(t, derived.KindVariable, de.Kind(pool))

	body := pool.MakeInt(th, 2)
	defer body.Drop()

	lam, err := derived.MakeLambda(pool, th, v.Ref(), body.Ref())
	require.NoError(t, err)
	defer lam.Drop()

	lamExpr, ok := derived.DataExprSchema.TryWrap(pool, lam.Ref())
	require.True(t, ok)
	require.Equal(t, derived.KindLambda, lamExpr.Kind(pool))
}
