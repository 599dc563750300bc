package bflock_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcrl2/aterm/pkg/aterm/bflock"
)

func Test_LockShared_Reentrant_Leaves_Token_Unlocked(t *testing.T) {
	t.Parallel()

	l := bflock.New()
	tok := l.Register()
	defer l.Unregister(tok)

	tok.LockShared()
	tok.LockShared()

	require.False(t, tok.UnlockShared())
	require.True(t, tok.UnlockShared())
}

func Test_LockExclusive_Waits_For_Busy_Readers_Then_Proceeds(t *testing.T) {
	t.Parallel()

	l := bflock.New()
	reader := l.Register()

	reader.LockShared()

	released := make(chan struct{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		reader.UnlockShared()
		close(released)
	}()

	require.NoError(t, l.LockExclusive(nil))
	l.UnlockExclusive()

	<-released
}

func Test_LockExclusive_ReentrantFromHolder_Errors(t *testing.T) {
	t.Parallel()

	l := bflock.New()
	tok := l.Register()

	tok.LockShared()
	defer tok.UnlockShared()

	require.ErrorIs(t, l.LockExclusive(tok), bflock.ErrReentrantExclusive)
}

func Test_Concurrent_Readers_Without_A_Writer_Lock_And_Unlock_Without_Deadlock(t *testing.T) {
	t.Parallel()

	const readers = 16

	const iterations = 2000

	l := bflock.New()

	var wg sync.WaitGroup

	var violations atomic.Int64

	for range readers {
		tok := l.Register()

		wg.Add(1)

		go func(tok *bflock.ReaderToken) {
			defer wg.Done()

			for range iterations {
				tok.LockShared()

				if tok.UnlockShared() {
					// token reports fully unlocked; nothing further to
					// assert here beyond absence of panics/deadlocks,
					// which t.Parallel's deadline would surface.
					_ = violations.Load()
				}
			}
		}(tok)
	}

	wg.Wait()
}

func Test_Writer_Acquires_Within_Bounded_Reader_Iterations(t *testing.T) {
	t.Parallel()

	const readerCount = 4

	l := bflock.New()

	stop := atomic.Bool{}

	var wg sync.WaitGroup

	for range readerCount {
		tok := l.Register()

		wg.Add(1)

		go func(tok *bflock.ReaderToken) {
			defer wg.Done()

			for !stop.Load() {
				tok.LockShared()
				tok.UnlockShared()
			}
		}(tok)
	}

	done := make(chan struct{})

	go func() {
		require.NoError(t, l.LockExclusive(nil))
		l.UnlockExclusive()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("writer starved by spinning readers")
	}

	stop.Store(true)
	wg.Wait()
}

func Test_Vector_Append_And_At(t *testing.T) {
	t.Parallel()

	v := bflock.NewVector[string]()

	i0 := v.Append("a")
	i1 := v.Append("b")

	require.Equal(t, 0, i0)
	require.Equal(t, 1, i1)
	require.Equal(t, 2, v.Len())

	val, ok := v.At(0)
	require.True(t, ok)
	require.Equal(t, "a", val)

	_, ok = v.At(5)
	require.False(t, ok)
}

func Test_Vector_Concurrent_Readers_During_Append(t *testing.T) {
	t.Parallel()

	v := bflock.NewVector[int]()

	var wg sync.WaitGroup

	stop := atomic.Bool{}

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := range 500 {
			v.Append(i)
		}

		stop.Store(true)
	}()

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for !stop.Load() {
				n := v.Len()
				for i := range n {
					_, _ = v.At(i)
				}
			}
		}()
	}

	wg.Wait()
}
