package aterm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) (*Pool, *ThreadHandle) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.AutomaticGC = false

	pool, err := Init(cfg)
	require.NoError(t, err)

	th := pool.RegisterThread()

	t.Cleanup(func() {
		pool.UnregisterThread(th)
		pool.Shutdown()
	})

	return pool, th
}

func Test_MakeApplication_Shares_Structurally_Equal_Nodes(t *testing.T) {
	pool, th := newTestPool(t)

	sym := pool.Intern(th, "f", 1)
	defer pool.ReleaseSymbol(th, sym)

	arg := pool.MakeInt(th, 42)
	defer arg.Drop()

	a, err := pool.MakeApplication(th, sym, []TermRef{arg.Ref()})
	require.NoError(t, err)
	defer a.Drop()

	b, err := pool.MakeApplication(th, sym, []TermRef{arg.Ref()})
	require.NoError(t, err)
	defer b.Drop()

	require.True(t, a.Equal(b))
	require.Equal(t, a.AddressOf(), b.AddressOf())
}

func Test_Symbols_Lists_Interned_Symbols_In_Creation_Order(t *testing.T) {
	pool, th := newTestPool(t)

	before := len(pool.Symbols())

	a := pool.Intern(th, "alpha", 2)
	defer pool.ReleaseSymbol(th, a)

	b := pool.Intern(th, "beta", 0)
	defer pool.ReleaseSymbol(th, b)

	syms := pool.Symbols()
	require.Len(t, syms, before+2)
	require.Equal(t, "alpha", syms[before].Name())
	require.Equal(t, 2, syms[before].Arity())
	require.Equal(t, "beta", syms[before+1].Name())
}

func Test_Intern_Returns_Same_Symbol_For_Same_Key(t *testing.T) {
	pool, th := newTestPool(t)

	a := pool.Intern(th, "g", 2)
	b := pool.Intern(th, "g", 2)

	require.Same(t, a, b)

	pool.ReleaseSymbol(th, a)
	pool.ReleaseSymbol(th, b)
}

func Test_MakeApplication_Rejects_Arity_Mismatch(t *testing.T) {
	pool, th := newTestPool(t)

	sym := pool.Intern(th, "h", 2)
	defer pool.ReleaseSymbol(th, sym)

	arg := pool.MakeInt(th, 1)
	defer arg.Drop()

	_, err := pool.MakeApplication(th, sym, []TermRef{arg.Ref()})
	require.ErrorIs(t, err, ErrArityMismatch)
}

func Test_CollectNow_Reclaims_Unrooted_Nodes_And_Keeps_Rooted_Ones(t *testing.T) {
	pool, th := newTestPool(t)

	kept := pool.MakeInt(th, 1)
	defer kept.Drop()

	discarded := pool.MakeInt(th, 2)
	discarded.Drop()

	pool.CollectNow(th)

	require.Equal(t, 1, pool.Size(th))

	// Re-creating the discarded value builds a fresh node (the old one
	// was swept) that carries the same payload.
	recreated := pool.MakeInt(th, 2)
	defer recreated.Drop()

	require.Equal(t, uint64(2), recreated.Ref().node.intVal)
}

func Test_CollectNow_Keeps_Externally_Protected_Nodes_With_No_Root(t *testing.T) {
	pool, th := newTestPool(t)

	owned := pool.MakeInt(th, 7)
	ref := owned.Ref()
	owned.node.extRefs.Add(1) // simulate an external holder outside any protection set
	owned.Drop()

	pool.CollectNow(th)

	require.Equal(t, 1, pool.Size(th))

	ref.node.extRefs.Add(-1)
}

func Test_FromText_ToText_Roundtrip(t *testing.T) {
	pool, th := newTestPool(t)

	// ToText emits no space after a comma (spec.md §8 scenario 2:
	// from_text("f(a, g(b))") -> to_text -> "f(a,g(b))"), so round-trip
	// input/output equality only holds for already-unspaced text; spaced
	// input is covered separately below.
	cases := []string{
		"42",
		"foo",
		"f(1,2)",
		"[1,2,3]",
		"[]",
		"Apply(f,g)",
	}

	for _, text := range cases {
		owned, err := pool.FromText(th, text)
		require.NoError(t, err, text)

		got := pool.ToText(th, owned.Ref())
		require.Equal(t, text, got, text)

		owned.Drop()
	}
}

func Test_ToText_Matches_Spec_Literal_Output_For_Spaced_Input(t *testing.T) {
	pool, th := newTestPool(t)

	owned, err := pool.FromText(th, "f(a, g(b))")
	require.NoError(t, err)
	defer owned.Drop()

	require.Equal(t, "f(a,g(b))", pool.ToText(th, owned.Ref()))
}

func Test_FromText_Rejects_Malformed_Input(t *testing.T) {
	pool, th := newTestPool(t)

	_, err := pool.FromText(th, "f(1, 2")
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func Test_WriteBinary_ReadBinary_Preserves_Sharing(t *testing.T) {
	pool, th := newTestPool(t)

	shared := pool.MakeInt(th, 99)
	defer shared.Drop()

	sym := pool.Intern(th, "pair", 2)
	defer pool.ReleaseSymbol(th, sym)

	root, err := pool.MakeApplication(th, sym, []TermRef{shared.Ref(), shared.Ref()})
	require.NoError(t, err)
	defer root.Drop()

	var buf bytes.Buffer
	require.NoError(t, pool.WriteBinary(&buf, th, []TermRef{root.Ref()}))

	decoded, err := pool.ReadBinary(&buf, th)
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	defer decoded[0].Drop()

	require.Equal(t, pool.ToText(th, root.Ref()), pool.ToText(th, decoded[0].Ref()))

	left, err := decoded[0].Ref().Arg(0)
	require.NoError(t, err)
	right, err := decoded[0].Ref().Arg(1)
	require.NoError(t, err)

	require.Equal(t, left.AddressOf(), right.AddressOf())
}

func Test_ReadBinary_Rejects_Bad_Magic(t *testing.T) {
	pool, th := newTestPool(t)

	_, err := pool.ReadBinary(bytes.NewReader([]byte("nope")), th)
	require.Error(t, err)

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
}

func Test_TermVector_Roots_Keep_Nodes_Alive_Across_Collection(t *testing.T) {
	pool, th := newTestPool(t)

	vec := NewTermVector(th)

	owned := pool.MakeInt(th, 123)
	vec.Push(owned.Ref())
	owned.Drop()

	pool.CollectNow(th)

	require.Equal(t, 1, pool.Size(th))
	require.Equal(t, 1, vec.Len())

	val, ok := vec.At(0).AsInt(pool)
	require.True(t, ok)
	require.Equal(t, uint64(123), val)

	vec.Close()
}
